package utils

import (
	"fmt"
	"strconv"
)

// EncodeProfile fixes the parameters every normalized segment shares
type EncodeProfile struct {
	Width        int
	Height       int
	FPS          int
	VideoCodec   string
	Preset       string
	CRF          int
	PixelFormat  string
	AudioBitrate string
}

// ScalePadFilter is the contain-fit filter: scale down to fit, pad to the exact canvas
func (p EncodeProfile) ScalePadFilter() string {
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,setsar=1",
		p.Width, p.Height, p.Width, p.Height)
}

// Every segment carries one AAC stream with these parameters so that the
// concat demuxer can join them with -c copy.
const (
	SegmentSampleRate = 44100
	SegmentChannels   = 2
)

// silenceInput is an endless silent stereo track at the segment sample rate
func silenceInput() []string {
	return []string{
		"-f", "lavfi",
		"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", SegmentSampleRate),
	}
}

// SegmentAudioArgs is the audio encoding shared by every normalized segment
func (p EncodeProfile) SegmentAudioArgs() []string {
	return []string{
		"-c:a", "aac",
		"-b:a", p.AudioBitrate,
		"-ar", strconv.Itoa(SegmentSampleRate),
		"-ac", strconv.Itoa(SegmentChannels),
	}
}

// StillImageArgs loops one image into a fixed-duration clip with a silent audio track
func StillImageArgs(p EncodeProfile, imagePath, outputPath string, seconds float64) []string {
	args := []string{"-y", "-loop", "1", "-i", imagePath}
	args = append(args, silenceInput()...)
	args = append(args,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-t", formatSeconds(seconds),
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-tune", "stillimage",
		"-pix_fmt", p.PixelFormat,
		"-vf", p.ScalePadFilter(),
		"-r", strconv.Itoa(p.FPS),
	)
	args = append(args, p.SegmentAudioArgs()...)
	return append(args, "-shortest", outputPath)
}

// VideoReencodeArgs re-encodes an uploaded clip to the output contract. Its own
// audio is kept when hasAudio is set; otherwise a silent track is added.
func VideoReencodeArgs(p EncodeProfile, inputPath, outputPath string, maxSeconds float64, hasAudio bool) []string {
	args := []string{"-y", "-i", inputPath}
	audioMap := "0:a:0"
	if !hasAudio {
		args = append(args, silenceInput()...)
		audioMap = "1:a:0"
	}
	args = append(args,
		"-map", "0:v:0",
		"-map", audioMap,
		"-t", formatSeconds(maxSeconds),
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", p.PixelFormat,
		"-vf", p.ScalePadFilter(),
		"-r", strconv.Itoa(p.FPS),
	)
	args = append(args, p.SegmentAudioArgs()...)
	if !hasAudio {
		args = append(args, "-shortest")
	}
	return append(args, outputPath)
}

// ConcatArgs joins the segments listed in a concat-demuxer manifest without re-encoding
func ConcatArgs(manifestPath, outputPath string) []string {
	return []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", manifestPath,
		"-c", "copy",
		"-movflags", "+faststart",
		outputPath,
	}
}

// OverlayArgs takes video from input 0 and audio from input 1, truncated to the shorter stream
func OverlayArgs(p EncodeProfile, videoPath, audioPath, outputPath, audioBitrate string) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", p.PixelFormat,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		outputPath,
	}
}

// RemuxCopyArgs swaps in a new audio track while stream-copying the video
func RemuxCopyArgs(videoPath, audioPath, outputPath, audioBitrate string, maxSeconds float64) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", "copy",
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		"-t", formatSeconds(maxSeconds),
		outputPath,
	}
}

// RemuxReencodeArgs is the slow fallback for RemuxCopyArgs
func RemuxReencodeArgs(p EncodeProfile, videoPath, audioPath, outputPath, audioBitrate string, maxSeconds float64) []string {
	return []string{
		"-y",
		"-i", videoPath,
		"-i", audioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-c:v", p.VideoCodec,
		"-preset", p.Preset,
		"-crf", strconv.Itoa(p.CRF),
		"-pix_fmt", p.PixelFormat,
		"-c:a", "aac",
		"-b:a", audioBitrate,
		"-shortest",
		"-t", formatSeconds(maxSeconds),
		outputPath,
	}
}

// SnippetArgs extracts a mono 16 kHz WAV excerpt for audio recognition
func SnippetArgs(videoPath, outputPath string, startSeconds, durationSeconds float64) []string {
	return []string{
		"-y",
		"-ss", FormatTimestamp(startSeconds),
		"-i", videoPath,
		"-t", formatSeconds(durationSeconds),
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		outputPath,
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}
