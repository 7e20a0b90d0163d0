package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Document is the on-disk shape of the store:
//
//	{"welcome": {"<chat id>": "<template>"}, "groups": [<chat id>, ...]}
//
// Welcome keys and groups keep insertion order when serialised.
type Document struct {
	order   []int64
	welcome map[int64]string
	groups  []int64
}

// WelcomeEntry is one chat's template.
type WelcomeEntry struct {
	ChatID int64
	Text   string
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{welcome: make(map[int64]string)}
}

// Welcome returns the template stored for chatID.
func (d *Document) Welcome(chatID int64) (string, bool) {
	text, ok := d.welcome[chatID]
	return text, ok
}

// SetWelcome inserts or overwrites the template for chatID.
// Overwriting keeps the chat's original position.
func (d *Document) SetWelcome(chatID int64, text string) {
	if d.welcome == nil {
		d.welcome = make(map[int64]string)
	}
	if _, ok := d.welcome[chatID]; !ok {
		d.order = append(d.order, chatID)
	}
	d.welcome[chatID] = text
}

func (d *Document) deleteWelcome(chatID int64) {
	if _, ok := d.welcome[chatID]; !ok {
		return
	}
	delete(d.welcome, chatID)
	if i := slices.Index(d.order, chatID); i >= 0 {
		d.order = slices.Delete(d.order, i, i+1)
	}
}

// Welcomes lists every template in insertion order.
func (d *Document) Welcomes() []WelcomeEntry {
	out := make([]WelcomeEntry, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, WelcomeEntry{ChatID: id, Text: d.welcome[id]})
	}
	return out
}

// HasGroup reports whether chatID is a known group.
func (d *Document) HasGroup(chatID int64) bool {
	return slices.Contains(d.groups, chatID)
}

// AddGroup appends chatID unless already present.
func (d *Document) AddGroup(chatID int64) bool {
	if d.HasGroup(chatID) {
		return false
	}
	d.groups = append(d.groups, chatID)
	return true
}

func (d *Document) removeGroup(chatID int64) {
	if i := slices.Index(d.groups, chatID); i >= 0 {
		d.groups = slices.Delete(d.groups, i, i+1)
	}
}

// Groups returns a copy of the known groups.
func (d *Document) Groups() []int64 {
	return slices.Clone(d.groups)
}

// MarshalJSON writes welcome keys and groups in insertion order and leaves
// <, > and & unescaped.
func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"welcome":{`)
	for i, id := range d.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(&buf, strconv.FormatInt(id, 10)); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSONString(&buf, d.welcome[id]); err != nil {
			return nil, err
		}
	}
	buf.WriteString(`},"groups":[`)
	for i, id := range d.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.FormatInt(id, 10))
	}
	buf.WriteString(`]}`)
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the document, keeping the order of welcome keys and
// dropping duplicate groups. The value must be an object holding exactly
// the "welcome" object and the "groups" array.
func (d *Document) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("document: expected object, got %v", tok)
	}

	doc := NewDocument()
	var haveWelcome, haveGroups bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		switch key {
		case "welcome":
			if haveWelcome {
				return fmt.Errorf("document: duplicate key %q", key)
			}
			haveWelcome = true
			if err := decodeWelcome(raw, doc); err != nil {
				return err
			}
		case "groups":
			if haveGroups {
				return fmt.Errorf("document: duplicate key %q", key)
			}
			haveGroups = true
			if err := decodeGroups(raw, doc); err != nil {
				return err
			}
		default:
			return fmt.Errorf("document: unknown key %q", key)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if dec.More() {
		return fmt.Errorf("document: trailing data")
	}
	if !haveWelcome || !haveGroups {
		return fmt.Errorf("document: both \"welcome\" and \"groups\" are required")
	}
	*d = *doc
	return nil
}

func decodeGroups(data []byte, doc *Document) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return fmt.Errorf("groups: expected array, got null")
	}
	var ids []int64
	if err := json.Unmarshal(data, &ids); err != nil {
		return fmt.Errorf("groups: %w", err)
	}
	for _, id := range ids {
		doc.AddGroup(id)
	}
	return nil
}

func decodeWelcome(data []byte, doc *Document) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("welcome: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		chatID, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return fmt.Errorf("welcome: invalid chat id %q", key)
		}
		var text string
		if err := dec.Decode(&text); err != nil {
			return fmt.Errorf("welcome[%s]: %w", key, err)
		}
		doc.SetWelcome(chatID, text)
	}
	_, err = dec.Token()
	return err
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimRight(tmp.Bytes(), "\n"))
	return nil
}

// encodeIndented renders doc the way it is written to disk.
func encodeIndented(doc *Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
