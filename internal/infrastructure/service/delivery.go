// Package service contains infrastructure services sitting between the
// application layer and external clients.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/librus-hub/librus-notify/internal/domain/shared"
	"github.com/librus-hub/librus-notify/internal/infrastructure/external/telegram"
	"github.com/librus-hub/librus-notify/pkg/logger"
	"github.com/librus-hub/librus-notify/pkg/retry"
	"github.com/librus-hub/librus-notify/pkg/timeutil"
)

// alertPrefix marks system failure notifications so they stand out from
// regular reports in the chat.
const alertPrefix = "🚨 *BŁĄD SYSTEMU LIBRUS*"

// MessageSender is the part of the Telegram client the delivery service uses.
type MessageSender interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
}

// DeliveryConfig contains delivery tuning.
type DeliveryConfig struct {
	// ChatID is the destination chat.
	ChatID string

	// MaxChunkLength caps a single Telegram message. The API limit is 4096;
	// 4000 leaves headroom for Markdown expansion.
	MaxChunkLength int

	// MaxRetries is the per-chunk retry budget.
	MaxRetries int

	// RetryBase is the initial retry delay; it doubles per attempt.
	RetryBase time.Duration

	// ChunkPause is the pause between consecutive chunks of one report.
	ChunkPause time.Duration

	// SilentQuietHours suppresses the notification sound late at night.
	SilentQuietHours bool

	// DisableAlerts turns off system failure notifications to the chat.
	DisableAlerts bool
}

// DefaultDeliveryConfig returns the standard delivery settings.
func DefaultDeliveryConfig(chatID string) DeliveryConfig {
	return DeliveryConfig{
		ChatID:         chatID,
		MaxChunkLength: 4000,
		MaxRetries:     3,
		RetryBase:      time.Second,
		ChunkPause:     500 * time.Millisecond,
	}
}

// Delivery sends Markdown reports to Telegram, splitting them into chunks
// that fit the API limit and retrying each chunk independently.
type Delivery struct {
	sender MessageSender
	config DeliveryConfig
	log    *logger.Logger
}

// NewDelivery creates a delivery service.
func NewDelivery(sender MessageSender, config DeliveryConfig, log *logger.Logger) *Delivery {
	if log == nil {
		log = logger.Default()
	}
	return &Delivery{sender: sender, config: config, log: log}
}

// Send delivers one report. Chunks are sent in order; if a chunk exhausts
// its retries the remaining chunks are abandoned, since delivering the tail
// of a report without its head would only confuse the chat.
func (d *Delivery) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	chunks := SplitMessage(text, d.config.MaxChunkLength)
	d.log.Info("sending report", logger.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		if err := d.sendChunk(ctx, chunk, i); err != nil {
			return shared.WrapError("delivery", "Send", shared.ErrExternalService,
				fmt.Sprintf("chunk %d/%d failed, aborting remainder", i+1, len(chunks)), err)
		}

		if i < len(chunks)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.config.ChunkPause):
			}
		}
	}

	return nil
}

func (d *Delivery) sendChunk(ctx context.Context, chunk string, index int) error {
	silent := d.config.SilentQuietHours && timeutil.IsQuietHours(timeutil.Now())

	return retry.DeliveryRetrier(d.config.MaxRetries, d.config.RetryBase).Do(ctx,
		func(ctx context.Context) error {
			_, err := d.sender.SendMessage(ctx, telegram.SendMessageParams{
				ChatID:              d.config.ChatID,
				Text:                chunk,
				ParseMode:           "Markdown",
				DisableNotification: silent,
			})
			if err == nil {
				return nil
			}

			d.log.Warn("chunk send failed", logger.ChunkIndex(index), logger.Err(err))
			if !telegram.IsRetryable(err) {
				return retry.Permanent(err)
			}

			// Honor the server's flood-control hint before the retrier's own
			// backoff kicks in.
			if after := telegram.RetryAfterHint(err); after > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(time.Duration(after) * time.Second):
				}
			}
			return retry.Retryable(err)
		})
}

// SendAlert notifies the chat about a system failure as a single message,
// never chunked. Alert delivery is best effort: a failed alert is logged and
// swallowed, because the alert path must never become another failure to
// report.
func (d *Delivery) SendAlert(ctx context.Context, text string) {
	if d.config.DisableAlerts {
		d.log.Warn("alerts disabled, dropping alert", logger.String("text", text))
		return
	}
	if err := d.sendChunk(ctx, alertPrefix+"\n\n"+text, 0); err != nil {
		d.log.Error("failed to deliver alert", logger.Err(err))
	}
}

// SplitMessage splits text into chunks of at most maxLen characters. Lines
// are kept whole when possible; a line longer than maxLen is split on word
// boundaries, and a single oversized word is cut hard.
func SplitMessage(text string, maxLen int) []string {
	if maxLen <= 0 || len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	appendPiece := func(piece string) {
		switch {
		case current.Len() == 0:
			current.WriteString(piece)
		case current.Len()+1+len(piece) <= maxLen:
			current.WriteByte('\n')
			current.WriteString(piece)
		default:
			flush()
			current.WriteString(piece)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if len(line) <= maxLen {
			appendPiece(line)
			continue
		}

		for _, piece := range splitLongLine(line, maxLen) {
			appendPiece(piece)
		}
	}
	flush()

	return chunks
}

// splitLongLine breaks one oversized line into pieces no longer than maxLen,
// preferring word boundaries.
func splitLongLine(line string, maxLen int) []string {
	var pieces []string
	var current strings.Builder

	for _, word := range strings.Split(line, " ") {
		for len(word) > maxLen {
			if current.Len() > 0 {
				pieces = append(pieces, current.String())
				current.Reset()
			}
			cut := runeBoundaryBefore(word, maxLen)
			pieces = append(pieces, word[:cut])
			word = word[cut:]
		}

		switch {
		case current.Len() == 0:
			current.WriteString(word)
		case current.Len()+1+len(word) <= maxLen:
			current.WriteByte(' ')
			current.WriteString(word)
		default:
			pieces = append(pieces, current.String())
			current.Reset()
			current.WriteString(word)
		}
	}
	if current.Len() > 0 {
		pieces = append(pieces, current.String())
	}

	return pieces
}

// runeBoundaryBefore returns the largest cut position not exceeding max that
// does not land inside a multi-byte rune. Splitting a Polish letter across
// chunks would make both halves invalid UTF-8 and Telegram rejects those
// with a permanent 400. If max is smaller than the first rune, that whole
// rune is taken.
func runeBoundaryBefore(s string, max int) int {
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut == 0 {
		_, cut = utf8.DecodeRuneInString(s)
	}
	return cut
}
