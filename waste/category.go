// Package waste maps detected object classes to waste-management categories.
package waste

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Cubiaa/waste-yolo/yolo"
)

// Category one of the three R's.
type Category string

const (
	Reduce  Category = "Reduce"
	Reuse   Category = "Reuse"
	Recycle Category = "Recycle"
	// Unknown is used for classes with no mapping.
	Unknown Category = "Unknown"
)

// ParseCategory accepts any casing of Reduce, Reuse or Recycle.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reduce":
		return Reduce, nil
	case "reuse":
		return Reuse, nil
	case "recycle":
		return Recycle, nil
	}
	return Unknown, fmt.Errorf("unknown waste category %q", s)
}

// DefaultMapping built-in category -> classes table. It covers the usual
// waste dataset labels and the COCO classes that turn up in household waste.
var DefaultMapping = map[Category][]string{
	Recycle: {
		"plastic", "paper", "cardboard", "metal", "glass", "can", "aluminium", "aluminum",
		"tin", "newspaper", "carton", "bottle", "wine glass",
	},
	Reuse: {
		"jar", "container", "bag", "cloth", "clothes", "textile", "shoes", "backpack",
		"handbag", "suitcase", "book", "cup", "bowl", "vase", "chair",
	},
	Reduce: {
		"trash", "organic", "food", "styrofoam", "battery", "e-waste", "straw",
		"plastic bag", "wrapper", "banana", "apple", "orange", "sandwich", "pizza",
		"fork", "knife", "spoon", "toothbrush",
	},
}

// Object a detection labelled with its waste category.
type Object struct {
	Class      string
	Confidence float32
	Box        [4]float32
	Category   Category
}

// Classifier maps class names to categories. It is safe for concurrent use.
type Classifier struct {
	mu      sync.RWMutex
	byClass map[string]Category
}

// NewClassifier builds a classifier from DefaultMapping with overrides
// applied on top. Overrides win for classes present in both.
func NewClassifier(overrides map[Category][]string) *Classifier {
	c := &Classifier{byClass: make(map[string]Category)}
	c.merge(DefaultMapping)
	c.merge(overrides)
	return c
}

// LoadClassifier reads overrides from a YAML file with a
// `waste_categories:` map of category name to class list.
func LoadClassifier(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waste categories: %w", err)
	}

	var doc struct {
		Categories map[string][]string `yaml:"waste_categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse waste categories: %w", err)
	}

	overrides, err := ParseMapping(doc.Categories)
	if err != nil {
		return nil, err
	}
	return NewClassifier(overrides), nil
}

// ParseMapping validates category names from configuration.
func ParseMapping(raw map[string][]string) (map[Category][]string, error) {
	out := make(map[Category][]string, len(raw))
	for name, classes := range raw {
		cat, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		out[cat] = append(out[cat], classes...)
	}
	return out, nil
}

func (c *Classifier) merge(mapping map[Category][]string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, cat := range []Category{Recycle, Reuse, Reduce} {
		for _, class := range mapping[cat] {
			c.byClass[normalize(class)] = cat
		}
	}
}

// Set assigns a single class to a category.
func (c *Classifier) Set(class string, cat Category) {
	c.mu.Lock()
	c.byClass[normalize(class)] = cat
	c.mu.Unlock()
}

// Categorize returns the category for class, or Unknown.
func (c *Classifier) Categorize(class string) Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if cat, ok := c.byClass[normalize(class)]; ok {
		return cat
	}
	return Unknown
}

// Label attaches categories to detections, keeping their order.
func (c *Classifier) Label(detections []yolo.Detection) []Object {
	objects := make([]Object, 0, len(detections))
	for _, d := range detections {
		objects = append(objects, Object{
			Class:      d.Class,
			Confidence: d.Score,
			Box:        d.Box,
			Category:   c.Categorize(d.Class),
		})
	}
	return objects
}

func normalize(class string) string {
	s := strings.ToLower(strings.TrimSpace(class))
	return strings.NewReplacer("_", " ", "-", " ").Replace(s)
}
