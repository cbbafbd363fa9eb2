package yolo

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// DefaultClasses the 80 COCO class names, used when no classes file is given.
var DefaultClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog",
	"horse", "sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella",
	"handbag", "tie", "suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite",
	"baseball bat", "baseball glove", "skateboard", "surfboard", "tennis racket", "bottle",
	"wine glass", "cup", "fork", "knife", "spoon", "bowl", "banana", "apple", "sandwich",
	"orange", "broccoli", "carrot", "hot dog", "pizza", "donut", "cake", "chair", "couch",
	"potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse", "remote",
	"keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator",
	"book", "clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

var errNoClasses = errors.New("no classes found")

// LoadClasses reads class names from a YAML file. Both a plain
// `classes:` list and the Ultralytics `names:` map (id -> name) are accepted.
func LoadClasses(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classes file: %w", err)
	}
	return parseClasses(data)
}

func parseClasses(data []byte) ([]string, error) {
	var doc struct {
		Classes []string  `yaml:"classes"`
		Names   yaml.Node `yaml:"names"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse classes file: %w", err)
	}

	if len(doc.Classes) > 0 {
		return doc.Classes, nil
	}

	switch doc.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := doc.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("parse names list: %w", err)
		}
		if len(names) > 0 {
			return names, nil
		}
	case yaml.MappingNode:
		var byID map[int]string
		if err := doc.Names.Decode(&byID); err != nil {
			return nil, fmt.Errorf("parse names map: %w", err)
		}
		if names := namesFromMap(byID); len(names) > 0 {
			return names, nil
		}
	}

	return nil, errNoClasses
}

// namesFromMap flattens an id -> name map; gaps get a placeholder name.
func namesFromMap(byID map[int]string) []string {
	ids := make([]int, 0, len(byID))
	for id := range byID {
		if id >= 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	names := make([]string, ids[len(ids)-1]+1)
	for i := range names {
		names[i] = fmt.Sprintf("class_%d", i)
	}
	for _, id := range ids {
		names[id] = byID[id]
	}
	return names
}
