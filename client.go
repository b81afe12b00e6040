// FILE: lixenwraith/tvconfig/client.go
package tvconfig

import (
	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// ClientSettings are the preferences synchronized between client devices.
// Device-specific preferences are deliberately absent. There is no rewrite path for these.
type ClientSettings struct {
	PinnedChannelIDs                            []string            `json:"pinned_channel_ids"`
	SavedTwitterHashtags                        []string            `json:"saved_twitter_hashtags"`
	PanelDisplayState                           string              `json:"panel_display_state" validate:"oneof=RestorePreviousState AlwaysDisplay AlwaysFold"`
	TVPanelActiveTab                            string              `json:"tv_panel_active_tab" validate:"oneof=Program Channel Comment Twitter"`
	TVChannelSelectionRequiresAltKey            bool                `json:"tv_channel_selection_requires_alt_key"`
	CaptionFont                                 string              `json:"caption_font"`
	AlwaysBorderCaptionText                     bool                `json:"always_border_caption_text"`
	SpecifyCaptionOpacity                       bool                `json:"specify_caption_opacity"`
	CaptionOpacity                              float64             `json:"caption_opacity"`
	TVShowSuperimpose                           bool                `json:"tv_show_superimpose"`
	CaptureSaveMode                             string              `json:"capture_save_mode" validate:"oneof=Browser UploadServer Both"`
	CaptureCaptionMode                          string              `json:"capture_caption_mode" validate:"oneof=VideoOnly CompositingCaption Both"`
	CommentSpeedRate                            float64             `json:"comment_speed_rate"`
	CommentFontSize                             int                 `json:"comment_font_size"`
	CloseCommentFormAfterSending                bool                `json:"close_comment_form_after_sending"`
	MutedCommentKeywords                        []map[string]string `json:"muted_comment_keywords"`
	MutedNiconicoUserIDs                        []string            `json:"muted_niconico_user_ids"`
	MuteVulgarComments                          bool                `json:"mute_vulgar_comments"`
	MuteAbusiveDiscriminatoryPrejudicedComments bool                `json:"mute_abusive_discriminatory_prejudiced_comments"`
	MuteBigSizeComments                         bool                `json:"mute_big_size_comments"`
	MuteFixedComments                           bool                `json:"mute_fixed_comments"`
	MuteColoredComments                         bool                `json:"mute_colored_comments"`
	MuteConsecutiveSameCharactersComments       bool                `json:"mute_consecutive_same_characters_comments"`
	FoldPanelAfterSendingTweet                  bool                `json:"fold_panel_after_sending_tweet"`
	ResetHashtagWhenProgramSwitches             bool                `json:"reset_hashtag_when_program_switches"`
	AutoAddWatchingChannelHashtag               bool                `json:"auto_add_watching_channel_hashtag"`
	TwitterActiveTab                            string              `json:"twitter_active_tab" validate:"oneof=Search Timeline Capture"`
	TweetHashtagPosition                        string              `json:"tweet_hashtag_position" validate:"oneof=Prepend Append PrependWithLineBreak AppendWithLineBreak"`
	TweetCaptureWatermarkPosition               string              `json:"tweet_capture_watermark_position" validate:"oneof=None TopLeft TopRight BottomLeft BottomRight"`
}

// DefaultClientSettings returns the preferences of a fresh client.
func DefaultClientSettings() ClientSettings {
	return ClientSettings{
		PinnedChannelIDs:                            []string{},
		SavedTwitterHashtags:                        []string{},
		PanelDisplayState:                           "RestorePreviousState",
		TVPanelActiveTab:                            "Program",
		CaptionFont:                                 "Windows TV MaruGothic",
		AlwaysBorderCaptionText:                     true,
		CaptionOpacity:                              1.0,
		TVShowSuperimpose:                           true,
		CaptureSaveMode:                             "UploadServer",
		CaptureCaptionMode:                          "Both",
		CommentSpeedRate:                            1,
		CommentFontSize:                             34,
		CloseCommentFormAfterSending:                true,
		MutedCommentKeywords:                        []map[string]string{},
		MutedNiconicoUserIDs:                        []string{},
		MuteVulgarComments:                          true,
		MuteAbusiveDiscriminatoryPrejudicedComments: true,
		MuteBigSizeComments:                         true,
		ResetHashtagWhenProgramSwitches:             true,
		AutoAddWatchingChannelHashtag:               true,
		TwitterActiveTab:                            "Capture",
		TweetHashtagPosition:                        "Append",
		TweetCaptureWatermarkPosition:               "None",
	}
}

var clientValidate = newValidate("json")

// DecodeClientSettings builds client settings from a decoded JSON object.
// Missing keys keep their defaults; unknown keys are ignored.
func DecodeClientSettings(raw map[string]any) (*ClientSettings, error) {
	settings := DefaultClientSettings()

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &settings,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "decoder creation failed")
	}
	if err := decoder.Decode(raw); err != nil {
		var derr *mapstructure.Error
		if !errors.As(err, &derr) {
			return nil, errors.Wrap(err, "decode client settings")
		}
		var fes []*FieldError
		for _, msg := range derr.Errors {
			fes = append(fes, decodeFailure(msg)...)
		}
		return nil, joinFieldErrors(fes)
	}

	if err := clientValidate.Struct(&settings); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, errors.Wrap(err, "validate client settings")
		}
		fes := make([]*FieldError, 0, len(verrs))
		for _, ve := range verrs {
			fes = append(fes, genericError(constraintPath(ve), "%s", describeConstraint(ve)))
		}
		return nil, joinFieldErrors(fes)
	}

	return &settings, nil
}
