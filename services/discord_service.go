package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"onusone/models"
)

// Embed colors.
const (
	colorRed    = 0xFF0000
	colorOrange = 0xFFA500
	colorGreen  = 0x00FF00
	colorBlue   = 0x3498DB
)

// DiscordNotifier forwards engine events to a Discord channel and answers a
// few operator commands. Entirely optional; without a bot token the engine
// runs without it.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
	botID     string
	enabled   bool

	// statusFn supplies the payload for the !onu status command.
	statusFn func() map[string]interface{}

	events   chan Event
	stopChan chan struct{}
}

func NewDiscordNotifier(token, channelID string, statusFn func() map[string]interface{}) (*DiscordNotifier, error) {
	if token == "" || channelID == "" {
		log.Println("Discord not configured, notifications disabled")
		return &DiscordNotifier{enabled: false}, nil
	}

	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	dn := &DiscordNotifier{
		session:   session,
		channelID: channelID,
		enabled:   true,
		statusFn:  statusFn,
		events:    make(chan Event, 64),
		stopChan:  make(chan struct{}),
	}

	session.AddHandler(dn.messageHandler)
	session.Identify.Intents = discordgo.IntentsGuildMessages

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("failed to open Discord connection: %w", err)
	}

	if user, err := session.User("@me"); err == nil {
		dn.botID = user.ID
	}

	log.Println("✓ Discord notifier connected")
	return dn, nil
}

// Run subscribes to engine events and forwards them until Stop is called.
func (dn *DiscordNotifier) Run(bus *EventBus) {
	if !dn.enabled {
		return
	}

	bus.Subscribe(dn.events, EventEmergencyActive, EventCycleCompleted, EventHealthChecked)

	go func() {
		for {
			select {
			case evt, ok := <-dn.events:
				if !ok {
					return
				}
				dn.notify(evt)
			case <-dn.stopChan:
				return
			}
		}
	}()
}

func (dn *DiscordNotifier) notify(evt Event) {
	var embed *discordgo.MessageEmbed

	switch evt.Type {
	case EventEmergencyActive:
		data, _ := evt.Data.(map[string]interface{})
		reason := "unknown"
		if r, ok := data["reason"].(string); ok {
			reason = r
		}
		embed = &discordgo.MessageEmbed{
			Title:       "🚨 Emergency Mode Activated",
			Description: reason,
			Color:       colorRed,
			Timestamp:   time.Now().Format(time.RFC3339),
		}

	case EventCycleCompleted:
		stats, ok := evt.Data.(models.CycleStats)
		if !ok {
			return
		}
		embed = &discordgo.MessageEmbed{
			Title: "💰 Payout Cycle Completed",
			Color: colorGreen,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Users Paid", Value: fmt.Sprintf("%d", stats.UsersPaid), Inline: true},
				{Name: "Rejected", Value: fmt.Sprintf("%d", stats.UsersRejected), Inline: true},
				{Name: "Total Paid", Value: fmt.Sprintf("%.2f", stats.TotalPaid), Inline: true},
				{Name: "Batches", Value: fmt.Sprintf("%d", stats.BatchCount), Inline: true},
				{Name: "Duration", Value: stats.Elapsed, Inline: true},
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if stats.EmergencyMode {
			embed.Color = colorOrange
			embed.Title = "💰 Payout Cycle Completed (emergency mode)"
		}

	case EventHealthChecked:
		state, ok := evt.Data.(models.SystemHealthState)
		if !ok {
			return
		}
		// Only surface health transitions worth waking someone for.
		if state.Overall != models.HealthPoor && state.Overall != models.HealthCritical {
			return
		}
		embed = &discordgo.MessageEmbed{
			Title: fmt.Sprintf("⚠️ System Health: %s", state.Overall),
			Color: colorOrange,
			Fields: []*discordgo.MessageEmbedField{
				{Name: "Economics", Value: string(state.Economics), Inline: true},
				{Name: "Decay", Value: string(state.Decay), Inline: true},
				{Name: "Payout", Value: string(state.Payout), Inline: true},
			},
			Timestamp: time.Now().Format(time.RFC3339),
		}
		if state.Overall == models.HealthCritical {
			embed.Color = colorRed
		}

	default:
		return
	}

	if _, err := dn.session.ChannelMessageSendEmbed(dn.channelID, embed); err != nil {
		log.Printf("Failed to send Discord notification: %v", err)
	}
}

func (dn *DiscordNotifier) messageHandler(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == dn.botID || m.Author.Bot {
		return
	}

	content := strings.TrimSpace(m.Content)
	if !strings.HasPrefix(content, "!onu") {
		return
	}

	command := strings.TrimSpace(strings.TrimPrefix(content, "!onu"))
	switch command {
	case "ping":
		s.ChannelMessageSend(m.ChannelID, "pong 🏓")

	case "status":
		if dn.statusFn == nil {
			s.ChannelMessageSend(m.ChannelID, "Status unavailable")
			return
		}
		status := dn.statusFn()
		var b strings.Builder
		b.WriteString("**Engine Status**\n")
		for key, value := range status {
			fmt.Fprintf(&b, "• %s: %v\n", key, value)
		}
		s.ChannelMessageSend(m.ChannelID, b.String())

	case "help", "":
		s.ChannelMessageSend(m.ChannelID,
			"**Commands**\n`!onu ping` - check the bot is alive\n`!onu status` - engine status summary\n`!onu help` - this message")
	}
}

// Stop closes the Discord session.
func (dn *DiscordNotifier) Stop() {
	if !dn.enabled {
		return
	}
	close(dn.stopChan)
	if err := dn.session.Close(); err != nil {
		log.Printf("Failed to close Discord session: %v", err)
	}
}
