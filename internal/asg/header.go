package asg

import "maps"

// Header keys written by the producers and the linker.
const (
	HeaderCreateTime = "create-time"
	HeaderExtraASG   = "extra-asg"
	HeaderChangeset  = "changeset"
	HeaderProducer   = "producer"
)

// Header is the key/value metadata stored in front of the node table.
type Header map[string]string

func (h Header) Get(key string) string {
	if h == nil {
		return ""
	}
	return h[key]
}

func (h Header) Clone() Header {
	if h == nil {
		return Header{}
	}
	return maps.Clone(h)
}
