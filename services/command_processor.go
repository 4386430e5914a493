package services

import (
	"chat-exchange/contract"
	"chat-exchange/domain"
	"chat-exchange/errors"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"
)

const (
	UsageMessage      = "Usage: exchange <days> [<currency1,currency2,...>]"
	DaysRangeMessage  = "Number of days should be between 1 and 10"
	errorReplyPrefix  = "Error: "
	documentIndent    = "  "
	chatMessageFormat = "%s: %s"
)

var _ contract.MessageHandler = (*CommandProcessor)(nil)

// CommandProcessor handles every inbound message of a peer: plain chat is relayed
// to all peers, `exchange` commands are validated, fetched, aggregated and broadcast.
// It keeps no state between messages.
type CommandProcessor struct {
	log          *slog.Logger
	registry     contract.IRegistry
	hub          contract.IBroadcaster
	fetcher      contract.RateFetcher
	audit        contract.AuditSink
	replyTimeout time.Duration
	now          func() time.Time
}

func NewCommandProcessor(log *slog.Logger, registry contract.IRegistry, hub contract.IBroadcaster,
	fetcher contract.RateFetcher, audit contract.AuditSink, replyTimeout time.Duration) *CommandProcessor {
	return &CommandProcessor{
		log:          log,
		registry:     registry,
		hub:          hub,
		fetcher:      fetcher,
		audit:        audit,
		replyTimeout: replyTimeout,
		now:          time.Now,
	}
}

// Handle processes one message from sender.
// The returned error only reports that a private reply could not reach the sender.
func (p *CommandProcessor) Handle(ctx context.Context, sender *domain.Peer, message string) error {
	if !domain.IsExchangeCommand(message) {
		p.broadcast(ctx, fmt.Sprintf(chatMessageFormat, sender.Name, message))
		return nil
	}

	cmd, err := domain.ParseExchangeCommand(message)
	if err != nil {
		p.log.Debug("Rejected exchange command", "peer", sender.Name, "message", message, "error", err)
		return p.reply(ctx, sender, replyFor(err))
	}
	return p.exchange(ctx, sender, cmd)
}

func replyFor(err error) string {
	switch {
	case stderrors.Is(err, errors.ErrUsage):
		return UsageMessage
	case stderrors.Is(err, errors.ErrDaysRange):
		return DaysRangeMessage
	default:
		return errorReplyPrefix + err.Error()
	}
}

func (p *CommandProcessor) exchange(ctx context.Context, sender *domain.Peer, cmd domain.ExchangeCommand) error {
	dates, err := domain.NewDateRange(p.now(), cmd.Days)
	if err != nil {
		return p.reply(ctx, sender, replyFor(err))
	}

	results := p.fetcher.FetchRange(ctx, dates)
	records := domain.Aggregate(results, cmd.Currencies)

	document, err := json.MarshalIndent(records, "", documentIndent)
	if err != nil {
		p.log.Error("Failed to serialize rates", "peer", sender.Name, "error", err)
		return p.reply(ctx, sender, errorReplyPrefix+err.Error())
	}

	p.log.Info("Exchange command served",
		"peer", sender.Name,
		"addr", sender.Addr,
		"days", cmd.Days,
		"currencies", cmd.Currencies.String(),
		"records", len(records),
		"failed_dates", len(results.Failed()))

	p.broadcast(ctx, string(document))

	record := domain.AuditRecord{
		At:         p.now(),
		Addr:       sender.Addr,
		Days:       cmd.Days,
		Currencies: cmd.Currencies,
		Document:   string(document),
	}
	if err := p.audit.Append(ctx, record); err != nil {
		p.log.Error("Failed to append audit record", "peer", sender.Name, "error", err)
	}
	return nil
}

func (p *CommandProcessor) broadcast(ctx context.Context, message string) {
	report := p.hub.Broadcast(ctx, message, p.registry.Snapshot())
	if report.Failed > 0 {
		p.log.Warn("Broadcast partially delivered", "delivered", report.Delivered, "failed", report.Failed)
	}
}

func (p *CommandProcessor) reply(ctx context.Context, sender *domain.Peer, message string) error {
	ctx, cancel := context.WithTimeout(ctx, p.replyTimeout)
	defer cancel()
	if err := sender.Conn.Send(ctx, message); err != nil {
		return fmt.Errorf("reply to %s: %w", sender.Name, err)
	}
	return nil
}
