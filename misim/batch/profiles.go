// Package batch loads client profiles and runs many conversations through a
// bounded worker pool.
package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ZanzyTHEbar/misim/misim/client"
)

const (
	referenceUtterances = 50
	maxRecordBytes      = 16 << 20
)

// Record is one line of a profiles JSONL file.
type Record struct {
	Topic            string    `json:"topic"`
	Behavior         string    `json:"Behavior"`
	Speakers         []string  `json:"speakers"`
	Utterances       []string  `json:"utterances"`
	Personas         []string  `json:"Personas"`
	Beliefs          []string  `json:"Beliefs"`
	Plans            []string  `json:"Acceptable Plans"`
	Motivation       []string  `json:"Motivation"`
	States           []string  `json:"states"`
	Suggestibilities []float64 `json:"suggestibilities"`
}

// Profile converts r into a validated client profile.
func (r Record) Profile() (*client.Profile, error) {
	if len(r.Motivation) != 4 {
		return nil, fmt.Errorf("motivation needs 3 topics and a statement, got %d entries", len(r.Motivation))
	}
	if len(r.States) == 0 {
		return nil, errors.New("states is empty")
	}
	if len(r.Suggestibilities) == 0 {
		return nil, errors.New("suggestibilities is empty")
	}

	initial, err := client.ParseStage(r.States[0])
	if err != nil {
		return nil, fmt.Errorf("initial stage: %w", err)
	}
	final, err := client.ParseStage(r.States[len(r.States)-1])
	if err != nil {
		return nil, fmt.Errorf("final stage: %w", err)
	}

	var sum float64
	for _, s := range r.Suggestibilities {
		sum += s
	}

	p := &client.Profile{
		Goal:         r.Topic,
		Behavior:     r.Behavior,
		Reference:    r.reference(),
		Topics:       [3]string{r.Motivation[0], r.Motivation[1], r.Motivation[2]},
		Motivation:   r.Motivation[3],
		Personas:     append([]string(nil), r.Personas...),
		Beliefs:      append([]string(nil), r.Beliefs...),
		Plans:        append([]string(nil), r.Plans...),
		Receptivity:  sum / float64(len(r.Suggestibilities)),
		InitialStage: initial,
		FinalStage:   final,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// reference renders the first utterances of the source session.
func (r Record) reference() string {
	n := min(len(r.Speakers), len(r.Utterances), referenceUtterances)
	var b strings.Builder
	for i := 0; i < n; i++ {
		if r.Speakers[i] == "client" {
			b.WriteString(client.ClientTag)
		} else {
			b.WriteString(client.CounselorTag)
		}
		b.WriteString(r.Utterances[i])
		b.WriteByte('\n')
	}
	return b.String()
}

// ReadProfiles parses JSONL records. Blank lines are ignored. Every bad
// record is reported; profiles are only returned when all are valid.
func ReadProfiles(r io.Reader) ([]*client.Profile, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxRecordBytes)

	var (
		profiles []*client.Profile
		errs     []error
		line     int
	)
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		p, err := rec.Profile()
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		profiles = append(profiles, p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return profiles, nil
}

// LoadProfiles reads the profiles file at path.
func LoadProfiles(path string) ([]*client.Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()
	return ReadProfiles(f)
}
