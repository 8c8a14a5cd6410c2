package pkg

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chainreactors/parsers"
	"github.com/chainreactors/utils/iutils"
	"github.com/stormloft/pummel/pkg/ihttp"
)

// Outcome is the result of executing one Candidate: either a received response
// or a transport failure after exhausting retries. Exactly one Outcome exists
// per submitted Candidate; ownership moves from a lane to the collector over
// the outcome channel.
type Outcome struct {
	Number     int    `json:"number"`
	Word       string `json:"word"`
	UrlString  string `json:"url"`
	Status     int    `json:"status"`
	Header     []byte `json:"-"`
	Body       []byte `json:"-"`
	BodyLength int    `json:"body_length"`
	Title      string `json:"title,omitempty"`
	Spended    int64  `json:"spend"` // milliseconds
	Retries    int    `json:"retries,omitempty"`
	ErrString  string `json:"error,omitempty"`
	Reason     string `json:"reason,omitempty"`
	IsValid    bool   `json:"valid"`
}

func NewOutcome(number int, word, u string, resp *ihttp.Response) *Outcome {
	o := &Outcome{
		Number:    number,
		Word:      word,
		UrlString: u,
		Status:    resp.StatusCode(),
	}

	// fasthttp reuses its buffers after release, keep private copies.
	if header := resp.Header(); header != nil {
		o.Header = make([]byte, len(header))
		copy(o.Header, header)
	}
	if body := resp.Body(); body != nil {
		o.Body = make([]byte, len(body))
		copy(o.Body, body)
	}
	o.BodyLength = len(o.Body)
	if o.BodyLength > 0 {
		o.Title = iutils.AsciiEncode(parsers.MatchTitle(o.Body))
	}
	return o
}

func NewFailedOutcome(number int, word, u string, retries int, err error) *Outcome {
	return &Outcome{
		Number:    number,
		Word:      word,
		UrlString: u,
		Retries:   retries,
		ErrString: err.Error(),
		Reason:    ErrRequestFailed.Error(),
	}
}

func (o *Outcome) IsFailed() bool {
	return o.ErrString != ""
}

// BodyText decodes the body permissively, replacing invalid byte sequences
// instead of rejecting them.
func (o *Outcome) BodyText() string {
	return strings.ToValidUTF8(string(o.Body), "�")
}

func (o *Outcome) Verdict() string {
	if o.IsValid {
		return "SUCCESS"
	}
	return "FAILURE"
}

func (o *Outcome) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("%s\t%s\t", o.Word, o.Verdict()))
	if o.IsFailed() {
		s.WriteString(o.ErrString)
		return s.String()
	}
	s.WriteString(fmt.Sprintf("[%d] %s - %d bytes - %dms", o.Status, o.UrlString, o.BodyLength, o.Spended))
	if o.Title != "" {
		s.WriteString(" [" + o.Title + "]")
	}
	if o.Reason != "" {
		s.WriteString(" " + o.Reason)
	}
	return s.String()
}

func (o *Outcome) Json() string {
	content, err := json.Marshal(o)
	if err != nil {
		return err.Error()
	}
	return string(content)
}
