package syncproto

import (
	"encoding/base64"
	"fmt"

	"github.com/beka-birhanu/vinom-maze-sync/seed"
)

// Narrow channel keywords.
const (
	Start = "START"
	End   = "END"
)

// SliceLength bounds the size of a single data unit.
const SliceLength = 100

var encoding = base64.RawStdEncoding

// Encode serializes info and renders it in the unpadded base64 alphabet.
func Encode(info seed.Info) (string, error) {
	bin, err := seed.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("serializing seed info: %w", err)
	}
	return encoding.EncodeToString(bin), nil
}

// Decode is the inverse of Encode.
func Decode(payload string) (seed.Info, error) {
	bin, err := encoding.DecodeString(payload)
	if err != nil {
		return seed.Info{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	info, err := seed.Unmarshal(bin)
	if err != nil {
		return seed.Info{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}
	return info, nil
}

// Split cuts payload into slices of at most limit characters. The result always
// holds at least one slice, even for an empty payload.
func Split(payload string, limit int) []string {
	if limit <= 0 || len(payload) <= limit {
		return []string{payload}
	}

	slices := make([]string, 0, (len(payload)+limit-1)/limit)
	for start := 0; start < len(payload); start += limit {
		slices = append(slices, payload[start:min(start+limit, len(payload))])
	}
	return slices
}

// Frame wraps slices with the START and END sentinels, in transmission order.
func Frame(slices []string) []string {
	units := make([]string, 0, len(slices)+2)
	units = append(units, Start)
	units = append(units, slices...)
	return append(units, End)
}
