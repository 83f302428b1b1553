package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// Document is the complete persisted collection of debtors.
type Document []Debtor

// FindByName returns the first debtor whose name matches case-insensitively.
func (doc Document) FindByName(name string) (*Debtor, bool) {
	i := doc.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return &doc[i], true
}

// IndexOf returns the index of the first debtor matching name, or -1.
func (doc Document) IndexOf(name string) int {
	for i := range doc {
		if SameName(doc[i].Name, name) {
			return i
		}
	}
	return -1
}

// InstallmentCount returns the number of installments across all debtors.
func (doc Document) InstallmentCount() int {
	n := 0
	for _, d := range doc {
		n += len(d.Installments)
	}
	return n
}

// Clone returns a deep copy of the document.
func (doc Document) Clone() Document {
	if doc == nil {
		return nil
	}
	out := make(Document, len(doc))
	for i, d := range doc {
		out[i] = Debtor{
			Name:         d.Name,
			Installments: append([]Installment{}, d.Installments...),
		}
	}
	return out
}

// Validate checks the document invariants: non-empty unique names, valid
// amounts and dates. Repeated due dates within a debtor are accepted, since
// older documents contain them; writes must not add new ones.
func (doc Document) Validate() error {
	seen := make(map[string]bool, len(doc))
	for i, d := range doc {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("debtor #%d: %w: name is empty", i, ErrInvalidName)
		}

		key := strings.ToLower(strings.TrimSpace(d.Name))
		if seen[key] {
			return fmt.Errorf("%w: %q", ErrDuplicateDebtor, d.Name)
		}
		seen[key] = true

		for _, inst := range d.Installments {
			if err := ValidateAmount(inst.Amount); err != nil {
				return fmt.Errorf("debtor %q: %w", d.Name, err)
			}
			if inst.DueDate.IsZero() {
				return fmt.Errorf("debtor %q: %w: missing due date", d.Name, ErrInvalidDate)
			}
		}
	}
	return nil
}

// ParseDocument decodes stored content and validates it.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: content is not a debtor list", ErrMalformedDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// Marshal validates the document and encodes it with two-space indentation.
func (doc Document) Marshal() ([]byte, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = Document{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Revision returns the SHA-256 content hash of serialized document bytes.
func Revision(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Wire format. Field names match the documents already stored by the
// web dashboard and must not change.

type installmentJSON struct {
	Amount  json.Number `json:"valor"`
	DueDate Date        `json:"vencimento"`
	Paid    bool        `json:"paga"`
}

type debtorJSON struct {
	Name         string        `json:"nome"`
	Installments []Installment `json:"parcelas"`
}

// MarshalJSON encodes the amount as an exact JSON number.
func (i Installment) MarshalJSON() ([]byte, error) {
	return json.Marshal(installmentJSON{
		Amount:  json.Number(i.Amount.String()),
		DueDate: i.DueDate,
		Paid:    i.Paid,
	})
}

// UnmarshalJSON decodes an installment without losing amount precision.
func (i *Installment) UnmarshalJSON(data []byte) error {
	var raw installmentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := parseStoredAmount(raw.Amount.String())
	if err != nil {
		return err
	}
	*i = Installment{Amount: amount, DueDate: raw.DueDate, Paid: raw.Paid}
	return nil
}

// MarshalJSON encodes the debtor, never emitting a null installment list.
func (d Debtor) MarshalJSON() ([]byte, error) {
	installments := d.Installments
	if installments == nil {
		installments = []Installment{}
	}
	return json.Marshal(debtorJSON{Name: d.Name, Installments: installments})
}

// UnmarshalJSON decodes a debtor; a missing installment list becomes empty.
func (d *Debtor) UnmarshalJSON(data []byte) error {
	var raw debtorJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Installments == nil {
		raw.Installments = []Installment{}
	}
	*d = Debtor{Name: raw.Name, Installments: raw.Installments}
	return nil
}
