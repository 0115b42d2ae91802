package cleanup

import "encoding/json"

// Progress is one event of a cleanup batch. A batch emits one Started, then
// for every candidate a Processing followed by a Success or a Failure, and
// finally one Finished.
type Progress interface {
	Type() string
	progress()
}

type Started struct {
	Total int `json:"total"`
}

// Processing announces the file about to be rewritten. Index is 1-based.
type Processing struct {
	Index int    `json:"index"`
	Total int    `json:"total"`
	Path  string `json:"path"`
}

type Success struct {
	Path       string `json:"path"`
	Removed    int    `json:"removed,omitempty"`
	BytesSaved int64  `json:"bytes_saved,omitempty"`
}

// Failure carries the user-facing summary of the error; the full chain goes
// to the log.
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type Finished struct {
	Successes int `json:"successes"`
	Failures  int `json:"failures"`
}

func (Started) Type() string    { return "started" }
func (Processing) Type() string { return "processing" }
func (Success) Type() string    { return "success" }
func (Failure) Type() string    { return "failure" }
func (Finished) Type() string   { return "finished" }

func (Started) progress()    {}
func (Processing) progress() {}
func (Success) progress()    {}
func (Failure) progress()    {}
func (Finished) progress()   {}

func (e Started) MarshalJSON() ([]byte, error) {
	type plain Started
	return marshalTagged(e.Type(), plain(e))
}

func (e Processing) MarshalJSON() ([]byte, error) {
	type plain Processing
	return marshalTagged(e.Type(), plain(e))
}

func (e Success) MarshalJSON() ([]byte, error) {
	type plain Success
	return marshalTagged(e.Type(), plain(e))
}

func (e Failure) MarshalJSON() ([]byte, error) {
	type plain Failure
	return marshalTagged(e.Type(), plain(e))
}

func (e Finished) MarshalJSON() ([]byte, error) {
	type plain Finished
	return marshalTagged(e.Type(), plain(e))
}

// marshalTagged encodes v with a leading "type" discriminator.
func marshalTagged(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+len(tag)+10)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}
