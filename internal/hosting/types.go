package hosting

// Privacy values accepted by the hosting platform.
const (
	PrivacyPrivate  = "private"
	PrivacyUnlisted = "unlisted"
	PrivacyPublic   = "public"
)

// Metadata is the caller's intent for a video. Title and Privacy are
// mandatory; everything else falls back to platform or config defaults.
type Metadata struct {
	Title         string
	Description   string
	Tags          []string
	CategoryID    string
	Privacy       string
	MadeForKids   bool
	Language      string
	AudioLanguage string
}

// Resource is the platform's view of a video after creation or read-back.
type Resource struct {
	ID       string
	URL      string
	Metadata Metadata
}

// UploadRequest describes a single upload. Progress is optional; when set,
// milestone events are published to it with non-blocking sends from the
// calling goroutine.
type UploadRequest struct {
	Channel  string
	Source   AssetSource
	Metadata Metadata
	Progress chan<- UploadProgress
}

// Upload stages, in order. Progress is milestone-based, not byte-level:
// each stage marks a phase transition of the single-request upload.
type Stage string

const (
	StageTokenAcquired   Stage = "token_acquired"
	StageEncoded         Stage = "encoded"
	StageTransferStarted Stage = "transfer_started"
	StageTransferDone    Stage = "transfer_done"
	StageCompleted       Stage = "completed"
)

type UploadProgress struct {
	Stage   Stage
	Percent int
}

var stagePercent = map[Stage]int{
	StageTokenAcquired:   10,
	StageEncoded:         25,
	StageTransferStarted: 40,
	StageTransferDone:    90,
	StageCompleted:       100,
}

// Wire shapes for the platform's videos API.

type videoSnippet struct {
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	Tags                 []string `json:"tags,omitempty"`
	CategoryID           string   `json:"categoryId,omitempty"`
	DefaultLanguage      string   `json:"defaultLanguage,omitempty"`
	DefaultAudioLanguage string   `json:"defaultAudioLanguage,omitempty"`
}

type videoStatus struct {
	PrivacyStatus           string `json:"privacyStatus"`
	SelfDeclaredMadeForKids bool   `json:"selfDeclaredMadeForKids"`
}

type videoResource struct {
	ID      string       `json:"id"`
	Snippet videoSnippet `json:"snippet"`
	Status  videoStatus  `json:"status"`
}

type videoListResponse struct {
	Items []videoResource `json:"items"`
}

func wireMetadata(meta Metadata) videoResource {
	return videoResource{
		Snippet: videoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 meta.Tags,
			CategoryID:           meta.CategoryID,
			DefaultLanguage:      meta.Language,
			DefaultAudioLanguage: meta.AudioLanguage,
		},
		Status: videoStatus{
			PrivacyStatus:           meta.Privacy,
			SelfDeclaredMadeForKids: meta.MadeForKids,
		},
	}
}

func metadataFromWire(v videoResource) Metadata {
	return Metadata{
		Title:         v.Snippet.Title,
		Description:   v.Snippet.Description,
		Tags:          v.Snippet.Tags,
		CategoryID:    v.Snippet.CategoryID,
		Privacy:       v.Status.PrivacyStatus,
		MadeForKids:   v.Status.SelfDeclaredMadeForKids,
		Language:      v.Snippet.DefaultLanguage,
		AudioLanguage: v.Snippet.DefaultAudioLanguage,
	}
}
