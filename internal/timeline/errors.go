package timeline

import "errors"

var (
	ErrClipNotFound      = errors.New("clip not found")
	ErrTrackNotFound     = errors.New("track not found")
	ErrInvalidClip       = errors.New("invalid clip")
	ErrInvalidTrack      = errors.New("invalid track")
	ErrDuplicateID       = errors.New("duplicate id")
	ErrCycle             = errors.New("parent reference forms a cycle")
	ErrTrackTypeMismatch = errors.New("clip cannot be placed on a track of another type")
	ErrKeyframeNotFound  = errors.New("keyframe not found")
	ErrMaskNotFound      = errors.New("mask not found")
	ErrOverlap           = errors.New("clips overlap")
	ErrAsymmetricLink    = errors.New("clip link is not symmetric")
	ErrVertexOutOfRange  = errors.New("mask vertex index out of range")
	ErrInvalidTransition = errors.New("invalid transition")
)
