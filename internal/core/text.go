package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Text is a wire field that is text for the journal but may arrive as a JSON
// number or boolean when the backing sheet cell holds one. null decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
	case bytes.Equal(data, []byte("true")), bytes.Equal(data, []byte("false")):
		*t = Text(data)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("text field: unsupported value %s", data)
		}
		*t = Text(n.String())
	}
	return nil
}

type categoryWire struct {
	ID       Text `json:"id"`
	Name     Text `json:"name"`
	ColorHex Text `json:"color_hex"`
}

type transactionWire struct {
	ID               Text `json:"id"`
	Date             Text `json:"date"`
	Title            Text `json:"title"`
	Amount           Text `json:"amount"`
	Category         Text `json:"category"`
	CategoryName     Text `json:"category_name"`
	CategoryColorHex Text `json:"category_color_hex"`
	Reply            Text `json:"reply"`
}

func (c *Category) UnmarshalJSON(data []byte) error {
	var w categoryWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Category{ID: string(w.ID), Name: string(w.Name), ColorHex: string(w.ColorHex)}
	return nil
}

func (t *Transaction) UnmarshalJSON(data []byte) error {
	var w transactionWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*t = Transaction{
		ID:               string(w.ID),
		Date:             string(w.Date),
		Title:            string(w.Title),
		Amount:           string(w.Amount),
		Category:         string(w.Category),
		CategoryName:     string(w.CategoryName),
		CategoryColorHex: string(w.CategoryColorHex),
		Reply:            string(w.Reply),
	}
	return nil
}
