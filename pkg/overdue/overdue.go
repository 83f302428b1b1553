// Package overdue finds unpaid installments past their due date and posts
// a reminder to a chat webhook.
package overdue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shunichi-ikebuchi/debt-tracker/pkg/ledger"
	"github.com/shunichi-ikebuchi/debt-tracker/pkg/report"
)

// maxListed is how many installments a notification lists before summarizing the rest.
const maxListed = 5

// Item is one overdue installment.
type Item struct {
	Debtor   string          `json:"debtor"`
	Amount   decimal.Decimal `json:"amount"`
	DueDate  ledger.Date     `json:"due_date"`
	DaysLate int             `json:"days_late"`
}

// Result represents the check result.
type Result struct {
	Count            int             `json:"count"`
	Total            decimal.Decimal `json:"total"`
	Items            []Item          `json:"items"`
	NotificationSent bool            `json:"notification_sent"`
}

// Find returns the unpaid installments due before today, oldest first.
func Find(doc ledger.Document, today ledger.Date) []Item {
	items := []Item{}
	for _, d := range doc {
		for _, inst := range d.Installments {
			if inst.Paid || !inst.DueDate.Before(today) {
				continue
			}
			items = append(items, Item{
				Debtor:   d.Name,
				Amount:   inst.Amount,
				DueDate:  inst.DueDate,
				DaysLate: today.DaysAfter(inst.DueDate),
			})
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].DueDate.Equal(items[j].DueDate) {
			return items[i].DueDate.Before(items[j].DueDate)
		}
		return items[i].Debtor < items[j].Debtor
	})
	return items
}

// Notifier posts messages to a chat webhook that accepts {"text": ...}.
type Notifier struct {
	webhookURL string
	client     *http.Client
	logger     *slog.Logger
}

// NewNotifier creates a Notifier. An empty URL disables notifications.
func NewNotifier(webhookURL string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.webhookURL != ""
}

// Notify posts one message listing the items.
func (n *Notifier) Notify(ctx context.Context, items []Item) error {
	payload, err := json.Marshal(map[string]string{"text": Message(items)})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification failed: status=%d", resp.StatusCode)
	}

	n.logger.Info("overdue notification sent", "count", len(items))
	return nil
}

// Message renders the notification text.
func Message(items []Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⚠️ Parcelas vencidas: %d (%s)\n\n", len(items), report.FormatBRL(total(items)))
	for i, item := range items {
		if i >= maxListed {
			fmt.Fprintf(&b, "...e mais %d", len(items)-maxListed)
			break
		}
		fmt.Fprintf(&b, "• %s %s venceu em %s (%d dias)\n", item.Debtor, report.FormatBRL(item.Amount), item.DueDate, item.DaysLate)
	}
	return b.String()
}

// Check finds overdue installments and notifies when there are any and the
// notifier is enabled.
func Check(ctx context.Context, doc ledger.Document, today ledger.Date, n *Notifier) (*Result, error) {
	items := Find(doc, today)
	result := &Result{
		Count: len(items),
		Total: total(items),
		Items: items,
	}

	if result.Count > 0 && n.Enabled() {
		if err := n.Notify(ctx, items); err != nil {
			return result, err
		}
		result.NotificationSent = true
	}
	return result, nil
}

func total(items []Item) decimal.Decimal {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount)
	}
	return sum
}
