package assistant

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aura-booking/backend/internal/analytics"
)

// BuildSystemPrompt assembles the assistant's system instruction from the
// organization's dashboard summary. The summary must already be redacted for
// the caller's role: revenue only reaches this function for admins, so the
// prompt can never leak figures to staff accounts.
func BuildSystemPrompt(orgName string, summary *analytics.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the booking assistant for %s, an appointment-based business.\n", orgName)
	b.WriteString("Answer questions about the business's schedule and workload using the data below. ")
	b.WriteString("Be concise. If the data does not cover a question, say so instead of guessing.\n\n")

	if summary == nil {
		b.WriteString("No activity data is available.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "Window: %s to %s\n", summary.From.Format("2006-01-02"), summary.To.Format("2006-01-02"))
	fmt.Fprintf(&b, "Upcoming appointments: %d\n", summary.UpcomingCount)

	if len(summary.TotalsByStatus) > 0 {
		statuses := make([]string, 0, len(summary.TotalsByStatus))
		for s := range summary.TotalsByStatus {
			statuses = append(statuses, s)
		}
		sort.Strings(statuses)
		b.WriteString("Appointments by status:\n")
		for _, s := range statuses {
			fmt.Fprintf(&b, "  %s: %d\n", s, summary.TotalsByStatus[s])
		}
	}

	if len(summary.BusiestStaff) > 0 {
		b.WriteString("Busiest staff:\n")
		for _, l := range summary.BusiestStaff {
			fmt.Fprintf(&b, "  %s: %d appointments\n", l.DisplayName, l.Count)
		}
	}

	if summary.RevenueCents != nil {
		fmt.Fprintf(&b, "Completed revenue: %.2f (in the organization's currency)\n", float64(*summary.RevenueCents)/100)
	}

	return b.String()
}
