package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/careertrack/internal"
)

// JSONExporter exports sessions in JSON format (pretty-printed)
type JSONExporter struct{}

// Export writes the session with its message count
func (e *JSONExporter) Export(session *internal.ChatSession, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(newDocument(session))
}

func (e *JSONExporter) Extension() string {
	return "json"
}
