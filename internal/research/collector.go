// Package research turns session records into pseudonymous rows for
// research export.
package research

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"github.com/aranyoray/studybot/internal/session"
)

// SaltSize is the size of a generated salt.
const SaltSize = 32

// pseudoIDHexLen is the number of hex characters kept from the digest.
const pseudoIDHexLen = 16

// ErrSaltTooLong is returned for salts longer than a BLAKE2b key.
var ErrSaltTooLong = errors.New("salt exceeds 64 bytes")

// Collector derives pseudonymous IDs under one salt. IDs are stable for the
// lifetime of a collector and differ across collectors with different
// salts. A Collector is not safe for concurrent use.
type Collector struct {
	salt []byte
	ids  map[string]string
}

// NewCollector creates a Collector keyed by salt. A nil or empty salt is
// replaced by SaltSize random bytes.
func NewCollector(salt []byte) (*Collector, error) {
	if len(salt) == 0 {
		salt = make([]byte, SaltSize)
		if _, err := rand.Read(salt); err != nil {
			return nil, fmt.Errorf("generate salt: %w", err)
		}
	}
	if len(salt) > blake2b.Size {
		return nil, ErrSaltTooLong
	}
	key := make([]byte, len(salt))
	copy(key, salt)
	return &Collector{salt: key, ids: make(map[string]string)}, nil
}

// PseudonymousID returns the one-way pseudo-ID for a user.
func (c *Collector) PseudonymousID(userID string) string {
	if id, ok := c.ids[userID]; ok {
		return id
	}
	h, err := blake2b.New256(c.salt)
	if err != nil {
		// Unreachable: NewCollector bounds the key length.
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	h.Write([]byte(userID))
	id := "p_" + hex.EncodeToString(h.Sum(nil))[:pseudoIDHexLen]
	c.ids[userID] = id
	return id
}

// Row is one flat research export row.
type Row struct {
	SessionID       string    `json:"sessionId"`
	PseudoID        string    `json:"pseudoId"`
	StartTime       time.Time `json:"startTime"`
	DurationSecs    float64   `json:"duration"`
	Accuracy        float64   `json:"accuracy"`
	TaskCount       int       `json:"taskCount"`
	AttentionScore  float64   `json:"attentionScore"`
	EngagementScore float64   `json:"engagementScore"`
	MathFluency     float64   `json:"mathFluency"`
	QualityScore    float64   `json:"qualityScore"`
	QualityFlags    string    `json:"qualityFlags"`
	IsValidSession  bool      `json:"isValidSession"`
}

// RowFromRecord flattens a session record, replacing the user ID with its
// pseudo-ID.
func (c *Collector) RowFromRecord(r session.Record) Row {
	flags := make([]string, len(r.Quality.QualityFlags))
	for i, f := range r.Quality.QualityFlags {
		flags[i] = string(f)
	}
	return Row{
		SessionID:       r.SessionID,
		PseudoID:        c.PseudonymousID(r.UserID),
		StartTime:       r.StartTime.UTC(),
		DurationSecs:    r.DurationSecs,
		Accuracy:        r.Accuracy,
		TaskCount:       r.TaskCount,
		AttentionScore:  r.Engagement.AttentionScore,
		EngagementScore: r.Engagement.EngagementScore,
		MathFluency:     r.Estimate.MathFluency,
		QualityScore:    r.Quality.AttentionScore,
		QualityFlags:    strings.Join(flags, ";"),
		IsValidSession:  r.Quality.IsValidSession,
	}
}

// Rows flattens a batch of records.
func (c *Collector) Rows(records []session.Record) []Row {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = c.RowFromRecord(r)
	}
	return rows
}
