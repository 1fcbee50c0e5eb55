package service

import (
	"context"
	"fmt"
	"strings"

	"StockSentinel/internal/notifier"
)

const helpText = `Available commands:
/analyze SYMBOL - technical analysis for one stock
/status - analysis cache
/providers - data provider usage
/probe [SYMBOL...] - test every provider
/cycle - run an analysis cycle now`

// HandleCommand answers a chat command. It satisfies notifier.CommandHandler.
func (s *Service) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Commands addressed to a bot in a group arrive as /cmd@botname.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	switch name {
	case "/analyze", "/a":
		if len(args) == 0 {
			return "Usage: /analyze SYMBOL (e.g. /analyze PETR4)"
		}
		res, err := s.Analyze(ctx, args[0])
		if err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
		return notifier.FormatAnalysis(res)
	case "/status":
		return notifier.FormatCacheStats(s.CacheStats())
	case "/providers":
		return notifier.FormatProviderStats(s.ProviderStats())
	case "/probe":
		return notifier.FormatProbeResults(s.ProbeProviders(ctx, args))
	case "/cycle":
		if !s.TriggerCycle(context.WithoutCancel(ctx)) {
			return "⏳ " + ErrCycleRunning.Error()
		}
		return "🚀 Analysis cycle started"
	default:
		return helpText
	}
}
