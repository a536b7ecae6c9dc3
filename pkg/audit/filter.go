package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FilterAction defines the action to take on matched metadata fields
type FilterAction string

const (
	FilterActionRemove FilterAction = "remove"
	FilterActionHash   FilterAction = "hash"
	FilterActionMask   FilterAction = "mask"
)

// defaultSensitiveFields never reach storage in clear text.
var defaultSensitiveFields = map[string]FilterAction{
	"secret":       FilterActionRemove,
	"code":         FilterActionRemove,
	"otp":          FilterActionRemove,
	"backup_code":  FilterActionRemove,
	"backup_codes": FilterActionRemove,
	"uri":          FilterActionRemove,
	"password":     FilterActionRemove,
	"token":        FilterActionRemove,
	"email":        FilterActionMask,
	"account_name": FilterActionMask,
}

// MetadataFilter scrubs sensitive values from event metadata. Keys are
// matched case-insensitively.
type MetadataFilter struct {
	rules map[string]FilterAction
}

// NewMetadataFilter returns a filter with the default rules plus custom ones.
func NewMetadataFilter(custom map[string]FilterAction) *MetadataFilter {
	rules := make(map[string]FilterAction, len(defaultSensitiveFields)+len(custom))
	for k, v := range defaultSensitiveFields {
		rules[k] = v
	}
	for k, v := range custom {
		rules[strings.ToLower(k)] = v
	}
	return &MetadataFilter{rules: rules}
}

// Filter returns a scrubbed copy of metadata.
func (f *MetadataFilter) Filter(metadata map[string]any) map[string]any {
	if len(metadata) == 0 {
		return metadata
	}

	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		action, ok := f.rules[strings.ToLower(k)]
		if !ok {
			out[k] = v
			continue
		}
		switch action {
		case FilterActionRemove:
		case FilterActionHash:
			if s, isString := v.(string); isString {
				sum := sha256.Sum256([]byte(s))
				out[k] = hex.EncodeToString(sum[:8])
			}
		case FilterActionMask:
			if s, isString := v.(string); isString {
				out[k] = mask(s)
			}
		}
	}
	return out
}

// mask keeps the first character and, for emails, the domain.
func mask(s string) string {
	if s == "" {
		return s
	}
	if at := strings.LastIndexByte(s, '@'); at > 0 {
		return s[:1] + "***" + s[at:]
	}
	return s[:1] + "***"
}
