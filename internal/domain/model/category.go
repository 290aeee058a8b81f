package model

import "fmt"

// Category classifies issue events and tips.
type Category uint8

const (
	CategoryHeadTilt Category = iota
	CategoryTorsoLean
	CategoryShoulders
	CategoryElbows
	CategoryKnees
	CategoryHandsHidden
	CategoryGestureRate
	CategoryFidget
	CategoryHandMotion
	CategoryBodyMotion
	categoryCount
)

// NumCategories is the size of the category enumeration.
const NumCategories = int(categoryCount)

var categoryNames = [NumCategories]string{
	"head_tilt", "torso_lean", "shoulders", "elbows", "knees",
	"hands_hidden", "gesture_rate", "fidget", "hand_motion", "body_motion",
}

func (c Category) String() string {
	if int(c) >= NumCategories {
		return "unknown"
	}
	return categoryNames[c]
}

// MarshalText implements encoding.TextMarshaler.
func (c Category) MarshalText() ([]byte, error) {
	if int(c) >= NumCategories {
		return nil, fmt.Errorf("invalid category %d", c)
	}
	return []byte(categoryNames[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(b []byte) error {
	for i, n := range categoryNames {
		if n == string(b) {
			*c = Category(i)
			return nil
		}
	}
	return fmt.Errorf("unknown category %q", string(b))
}
