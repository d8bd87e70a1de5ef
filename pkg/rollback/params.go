package rollback

import (
	"encoding/json"

	"github.com/alantheprice/angela/pkg/journal"
)

// forwardParams is the JSON shape of an operation's forward_params field
// for every filesystem operation kind. Field names are shared across
// kinds; not every kind populates every field.
type forwardParams struct {
	Path string `json:"path"`
	Src  string `json:"src"`
	Dst  string `json:"dst"`
}

type decodedPath struct {
	path       string
	secondPath string
}

// decodeForwardPath extracts the path(s) an operation's forward params
// named, so its inverse can be applied without re-parsing the original
// shell command. A decode failure yields an empty decodedPath rather than
// an error: fsexec.Apply will then fail loudly with a clearer message.
func decodeForwardPath(op *journal.Operation) decodedPath {
	var params forwardParams
	if err := json.Unmarshal([]byte(op.ForwardParams), &params); err != nil {
		return decodedPath{}
	}

	switch op.Kind {
	case journal.KindMoveFile:
		return decodedPath{path: params.Dst, secondPath: params.Src}
	case journal.KindCopyFile:
		return decodedPath{path: params.Dst}
	default:
		return decodedPath{path: params.Path}
	}
}
