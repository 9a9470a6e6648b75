package timeline

import (
	"fmt"

	"github.com/google/uuid"
)

// AddKeyframe stores a keyframe on a clip and returns its id
func (s *Store) AddKeyframe(clipID string, kf Keyframe) (string, error) {
	c, ok := s.clips[clipID]
	if !ok {
		return "", fmt.Errorf("add keyframe on %s: %w", clipID, ErrClipNotFound)
	}
	if kf.ID == "" {
		kf.ID = uuid.New().String()
	}
	if kf.Easing == "" {
		kf.Easing = EaseLinear
	}

	kfs := make([]Keyframe, 0, len(c.Keyframes)+1)
	kfs = append(kfs, c.Keyframes...)
	kfs = append(kfs, kf)
	SortKeyframes(kfs)
	c.Keyframes = kfs
	s.touch(clipID)
	return kf.ID, nil
}

// RemoveKeyframe deletes one keyframe from a clip
func (s *Store) RemoveKeyframe(clipID, keyframeID string) error {
	c, ok := s.clips[clipID]
	if !ok {
		return fmt.Errorf("remove keyframe on %s: %w", clipID, ErrClipNotFound)
	}
	for i, kf := range c.Keyframes {
		if kf.ID != keyframeID {
			continue
		}
		kfs := make([]Keyframe, 0, len(c.Keyframes)-1)
		kfs = append(kfs, c.Keyframes[:i]...)
		kfs = append(kfs, c.Keyframes[i+1:]...)
		c.Keyframes = kfs
		s.touch(clipID)
		return nil
	}
	return fmt.Errorf("keyframe %s on %s: %w", keyframeID, clipID, ErrKeyframeNotFound)
}

// ClipKeyframes returns a copy of a clip's keyframes in time order. Unknown
// clips have none.
func (s *Store) ClipKeyframes(clipID string) []Keyframe {
	c, ok := s.clips[clipID]
	if !ok {
		return nil
	}
	return append([]Keyframe(nil), c.Keyframes...)
}
