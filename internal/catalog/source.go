package catalog

import (
	"bytes"
	"embed"
	"os"
	"strings"

	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed content/quizzes.yaml
var content embed.FS

// Document is the top-level shape of a catalog source file.
type Document struct {
	Quizzes []SourceQuiz `yaml:"quizzes" json:"quizzes"`
}

// SourceQuiz is a quiz as authored, before answer letters are decoded.
type SourceQuiz struct {
	ID            string           `yaml:"id,omitempty" json:"id,omitempty"`
	Category      domain.Category  `yaml:"category" json:"category"`
	Name          string           `yaml:"name" json:"name"`
	Title         string           `yaml:"title" json:"title"`
	Description   string           `yaml:"description" json:"description"`
	PassThreshold int              `yaml:"pass_threshold,omitempty" json:"pass_threshold,omitempty"`
	Questions     []SourceQuestion `yaml:"questions" json:"questions"`
	Details       RawDetails       `yaml:"details,omitempty" json:"details,omitempty"`
}

// SourceQuestion stores the correct option as a letter A-D.
type SourceQuestion struct {
	ID       string   `yaml:"id,omitempty" json:"id,omitempty"`
	Question string   `yaml:"question" json:"question"`
	Options  []string `yaml:"options" json:"options"`
	Answer   string   `yaml:"answer" json:"answer"`
}

// QuizID returns the explicit id or derives <category>-<slug(name)>.
func (q SourceQuiz) QuizID() string {
	if q.ID != "" {
		return q.ID
	}
	return string(q.Category) + "-" + Slug(q.Name)
}

// RawDetails defers decoding of item details until the category is known.
type RawDetails struct {
	node *yaml.Node
	json []byte
}

func (r *RawDetails) UnmarshalYAML(value *yaml.Node) error {
	n := *value
	r.node = &n
	return nil
}

func (r *RawDetails) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	r.json = append([]byte(nil), data...)
	return nil
}

func (r RawDetails) MarshalJSON() ([]byte, error) {
	if r.json != nil {
		return r.json, nil
	}
	if r.node == nil {
		return []byte("null"), nil
	}
	var generic any
	if err := r.node.Decode(&generic); err != nil {
		return nil, err
	}
	return json.Marshal(generic)
}

// Empty reports whether no details were authored.
func (r RawDetails) Empty() bool {
	return r.node == nil && r.json == nil
}

// Decode resolves the details into the concrete type for category.
func (r RawDetails) Decode(category domain.Category) (domain.ItemDetails, error) {
	if r.Empty() {
		return nil, nil
	}
	details, target, ok := domain.NewDetails(category)
	if !ok {
		return nil, errors.Errorf("no details type for category %q", category)
	}
	var err error
	if r.node != nil {
		err = r.node.Decode(target)
	} else {
		err = json.Unmarshal(r.json, target)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s details", category)
	}
	switch d := details.(type) {
	case *domain.CharacterDetails:
		return *d, nil
	case *domain.PetDetails:
		return *d, nil
	case *domain.WeaponDetails:
		return *d, nil
	}
	return details, nil
}

// ParseYAML decodes a catalog document.
func ParseYAML(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(err, "parse catalog yaml")
	}
	return doc, nil
}

// ParseQuizJSON decodes a single quiz document, as stored in the quizzes table.
func ParseQuizJSON(data []byte) (SourceQuiz, error) {
	var q SourceQuiz
	if err := json.Unmarshal(data, &q); err != nil {
		return SourceQuiz{}, errors.Wrap(err, "parse quiz json")
	}
	return q, nil
}

// EmbeddedDocument returns the catalog bundled with the binary.
func EmbeddedDocument() (Document, error) {
	data, err := content.ReadFile("content/quizzes.yaml")
	if err != nil {
		return Document{}, errors.Wrap(err, "read embedded catalog")
	}
	return ParseYAML(data)
}

// FileDocument reads a catalog document from disk.
func FileDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errors.Wrapf(err, "read catalog %s", path)
	}
	return ParseYAML(data)
}

// DecodeAnswer maps A-D (case-insensitive) to 0-3.
func DecodeAnswer(letter string) (int, bool) {
	l := strings.ToUpper(strings.TrimSpace(letter))
	if len(l) != 1 || l[0] < 'A' || l[0] >= 'A'+domain.OptionCount {
		return 0, false
	}
	return int(l[0] - 'A'), true
}

// Slug lowercases name and joins whitespace-separated words with '-'.
func Slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}
