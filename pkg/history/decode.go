package history

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/helmcode/triage/pkg/model"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// decodeEntries reads a /history body. Only a JSON array (or null) is a valid
// listing; items that are not objects are skipped.
func decodeEntries(body []byte) ([]model.HistoryEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty history body")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}

	entries := make([]model.HistoryEntry, 0, len(items))
	for _, item := range items {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		entries = append(entries, decodeEntry(obj))
	}
	return entries, nil
}

func decodeEntry(obj map[string]json.RawMessage) model.HistoryEntry {
	entry := model.HistoryEntry{
		ID:               scalar(obj["id"]),
		CreatedAtRaw:     text(obj["created_at"]),
		Symptoms:         text(obj["symptoms"]),
		ConsultationType: strings.TrimSpace(text(obj["consultation_type"])),
		ConversationID:   text(obj["conversation_id"]),
		Questions:        texts(obj["questions"]),
		Assessment:       assessment(obj["assessment"]),
	}
	if entry.ConsultationType == "" {
		entry.ConsultationType = model.DefaultConsultationType
	}
	entry.CreatedAt = parseTime(entry.CreatedAtRaw)
	return entry
}

func assessment(raw json.RawMessage) model.HistoryAssessment {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if strings.TrimSpace(s) == "" {
			return model.HistoryAssessment{Kind: model.HistoryAssessmentAbsent}
		}
		return model.HistoryAssessment{Kind: model.HistoryAssessmentText, Text: s}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return model.HistoryAssessment{Kind: model.HistoryAssessmentAbsent}
	}
	return model.HistoryAssessment{
		Kind:           model.HistoryAssessmentObject,
		ConditionNames: conditionNames(obj["possible_conditions"]),
	}
}

// conditionNames accepts both {"condition": ...} objects and bare strings.
func conditionNames(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	var names []string
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err != nil {
			var c struct {
				Condition string `json:"condition"`
			}
			if err := json.Unmarshal(item, &c); err != nil {
				continue
			}
			name = c.Condition
		}
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func text(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func texts(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := text(item); strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// scalar renders a string or numeric id as text.
func scalar(raw json.RawMessage) string {
	if s := text(raw); s != "" {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
