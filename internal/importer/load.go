package importer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/recipebox/internal/recipe"
)

//go:embed schema.cue
var schemaSource []byte

// Import error codes.
const (
	ErrCodeUnsupported = "unsupported_format"
	ErrCodeRead        = "read_failed"
	ErrCodeParse       = "parse_failed"
	ErrCodeSchema      = "schema_violation"
	ErrCodeInvalid     = "invalid_recipe"
)

// Error describes a document that could not be imported.
type Error struct {
	Path    string
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
	Err     error
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Load reads the document file at path.
func Load(path string) ([]recipe.Recipe, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, &Error{Path: path, Code: ErrCodeUnsupported, Message: err.Error(), Err: err}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Path: path, Code: ErrCodeRead, Message: err.Error(), Err: err}
	}
	return Parse(data, format, filepath.Base(path))
}

// Parse decodes data in the given format. name labels error positions.
func Parse(data []byte, format Format, name string) ([]recipe.Recipe, error) {
	var (
		file File
		err  error
	)
	switch format {
	case FormatYAML:
		err = parseYAML(data, &file)
	case FormatJSON:
		err = parseJSON(data, &file)
	case FormatTOML:
		err = parseTOML(data, &file)
	case FormatCUE:
		err = parseCUE(data, name, &file)
	default:
		err = &Error{Code: ErrCodeUnsupported, Message: fmt.Sprintf("format %q", format)}
	}
	if err != nil {
		var ie *Error
		if errors.As(err, &ie) {
			if ie.Path == "" {
				ie.Path = name
			}
			return nil, ie
		}
		return nil, &Error{Path: name, Code: ErrCodeParse, Message: err.Error(), Err: err}
	}

	out := make([]recipe.Recipe, 0, len(file.Recipes))
	for i, doc := range file.Recipes {
		r := doc.Recipe()
		if err := recipe.ValidForSave(r); err != nil {
			return nil, &Error{
				Path:    name,
				Code:    ErrCodeInvalid,
				Message: fmt.Sprintf("recipes[%d]: %v", i, err),
				Err:     err,
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func parseYAML(data []byte, file *File) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(file); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func parseJSON(data []byte, file *File) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(file)
}

func parseTOML(data []byte, file *File) error {
	md, err := toml.Decode(string(data), file)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func parseCUE(data []byte, name string, file *File) error {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// Embedded schema is fixed at build time
		return fmt.Errorf("compiling recipe schema: %w", err)
	}

	doc := ctx.CompileBytes(data, cue.Filename(name))
	if err := doc.Err(); err != nil {
		return cueError(ErrCodeParse, err)
	}

	v := schema.Unify(doc)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return cueError(ErrCodeSchema, err)
	}
	// Concrete values go through JSON so absent and empty lists decode as
	// they do for the other formats.
	out, err := v.MarshalJSON()
	if err != nil {
		return cueError(ErrCodeParse, err)
	}
	return parseJSON(out, file)
}

// cueError converts the first CUE error to an Error carrying its position.
func cueError(code string, err error) error {
	ie := &Error{Code: code, Message: err.Error(), Err: err}
	if errs := cueerrors.Errors(err); len(errs) > 0 {
		first := errs[0]
		ie.Message = first.Error()
		if positions := cueerrors.Positions(first); len(positions) > 0 {
			ie.Pos = positions[0]
		}
	}
	return ie
}
