package board

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	domainboard "github.com/smallbiznis/boardview/internal/domain/board"
)

// Summarizer turns an assembled prompt into a narrative report. It is an
// external collaborator: the aggregation pipeline never depends on it and its
// failures never abort an aggregation.
type Summarizer interface {
	GenerateReport(ctx context.Context, prompt string) (string, error)
}

// ReportService renders a snapshot into a prompt and delegates to the
// configured summarizer.
type ReportService struct {
	summarizer Summarizer
	logger     *zap.Logger
}

// NewReportService wires the report service. A nil summarizer disables
// report generation.
func NewReportService(summarizer Summarizer, logger *zap.Logger) *ReportService {
	return &ReportService{summarizer: summarizer, logger: logger}
}

// Enabled reports whether a summarizer is configured.
func (r *ReportService) Enabled() bool {
	return r != nil && r.summarizer != nil
}

// Report generates a narrative report for the snapshot.
func (r *ReportService) Report(ctx context.Context, snap *domainboard.Snapshot) (string, error) {
	if !r.Enabled() {
		return "", fmt.Errorf("report: summarizer not configured")
	}
	report, err := r.summarizer.GenerateReport(ctx, BuildReportPrompt(snap))
	if err != nil {
		if r.logger != nil {
			r.logger.Warn("report generation failed", zap.String("board_id", snap.Board.ID), zap.Error(err))
		}
		return "", fmt.Errorf("generate report: %w", err)
	}
	return report, nil
}

// BuildReportPrompt flattens the snapshot into the analysis prompt handed to
// the summarizer.
func BuildReportPrompt(snap *domainboard.Snapshot) string {
	var sb strings.Builder
	sb.WriteString("Analyze the following board data and build a comprehensive report.\n\n")
	fmt.Fprintf(&sb, "Board Name: %s\n", orDefault(snap.Board.Name, "N/A"))
	fmt.Fprintf(&sb, "Board Description: %s\n\n", orDefault(snap.Board.Desc, "No description"))

	if len(snap.Lists) == 0 {
		sb.WriteString("The board has no lists or cards.\n")
		return sb.String()
	}

	sb.WriteString("Board Lists and Cards:\n")
	for _, list := range snap.Lists {
		fmt.Fprintf(&sb, "\nList: %s\n", orDefault(list.Name, "Unnamed List"))
		if len(list.Cards) == 0 {
			sb.WriteString("  - This list has no cards.\n")
			continue
		}
		for _, card := range list.Cards {
			fmt.Fprintf(&sb, "  - Card: %s\n", orDefault(card.Name, "Unnamed Card"))
			if card.Desc != "" {
				fmt.Fprintf(&sb, "    Description: %s\n", card.Desc)
			}
			if card.Due != nil {
				fmt.Fprintf(&sb, "    Due Date: %s\n", card.Due.Format("2006-01-02"))
			} else {
				sb.WriteString("    Due Date: No due date\n")
			}
			if len(card.Labels) > 0 {
				names := make([]string, 0, len(card.Labels))
				for _, label := range card.Labels {
					names = append(names, orDefault(label.Name, "N/A"))
				}
				fmt.Fprintf(&sb, "    Labels: %s\n", strings.Join(names, ", "))
			}
			if len(card.Members) > 0 {
				names := make([]string, 0, len(card.Members))
				for _, member := range card.Members {
					names = append(names, orDefault(member.FullName, "N/A"))
				}
				fmt.Fprintf(&sb, "    Assigned Members: %s\n", strings.Join(names, ", "))
			}
		}
	}

	sb.WriteString("\nBased on this data, please build a comprehensive report that includes:\n")
	sb.WriteString("1. Overall board status and progress\n")
	sb.WriteString("2. Key metrics (number of cards in each list, completion percentage)\n")
	sb.WriteString("3. Task distribution among team members\n")
	sb.WriteString("4. Upcoming deadlines and priority items\n")
	sb.WriteString("5. Recommendations for improving workflow or addressing bottlenecks\n")
	sb.WriteString("\nIMPORTANT: Format the report in a clear, professional structure with plain text headings. DO NOT use markdown formatting like **, ##, or any other markdown syntax.")
	return sb.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
