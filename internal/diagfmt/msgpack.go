package diagfmt

import (
	"errors"
	"io"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"faultline/internal/diag"
)

// Msgpack writes each report as a MessagePack value with the same layout as JSON.
type Msgpack struct {
	mu   sync.Mutex
	enc  *msgpack.Encoder
	opts JSONOpts
}

// NewMsgpack creates a MessagePack responder writing to w.
func NewMsgpack(w io.Writer, opts JSONOpts) *Msgpack {
	enc := msgpack.NewEncoder(w)
	enc.SetCustomStructTag("json")
	enc.SetOmitEmpty(true)
	return &Msgpack{enc: enc, opts: opts}
}

func (m *Msgpack) Respond(info diag.ErrorInfo) error {
	report := BuildReport(info, m.opts)

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enc.Encode(&report)
}

// DecodeReports reads MessagePack reports until EOF.
func DecodeReports(r io.Reader) ([]ReportJSON, error) {
	dec := msgpack.NewDecoder(r)
	dec.SetCustomStructTag("json")
	var out []ReportJSON
	for {
		var rep ReportJSON
		if err := dec.Decode(&rep); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, err
		}
		out = append(out, rep)
	}
}
