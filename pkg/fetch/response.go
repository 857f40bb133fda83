package fetch

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Response respuesta del origen ya leída por completo
type Response struct {
	Status       int
	Body         []byte
	LastModified string

	encoding string
}

// OK indica un estado 2xx
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Reader devuelve el cuerpo decodificado a UTF-8 y sin BOM
func (r *Response) Reader() io.Reader {
	return transform.NewReader(bytes.NewReader(r.Body), unicode.BOMOverride(decoder(r.encoding)))
}

// Text devuelve el cuerpo decodificado como string
func (r *Response) Text() (string, error) {
	b, err := io.ReadAll(r.Reader())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decoder(encoding string) transform.Transformer {
	switch strings.ToLower(encoding) {
	case "euc-kr", "cp949":
		return korean.EUCKR.NewDecoder()
	default:
		return unicode.UTF8.NewDecoder()
	}
}
