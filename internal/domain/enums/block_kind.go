package enums

type BlockKind string

const (
	BlockKindText  BlockKind = "text"
	BlockKindImage BlockKind = "image"
	BlockKindVideo BlockKind = "video"
	BlockKindAudio BlockKind = "audio"
)

func (k BlockKind) Valid() bool {
	switch k {
	case BlockKindText, BlockKindImage, BlockKindVideo, BlockKindAudio:
		return true
	}
	return false
}

func (k BlockKind) IsMedia() bool {
	return k == BlockKindImage || k == BlockKindVideo || k == BlockKindAudio
}
