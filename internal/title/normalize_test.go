package title_test

import (
	"strings"
	"testing"

	"reelgate/internal/title"
)

func TestNormalizeStripsReleaseDescriptors(t *testing.T) {
	got := title.Normalize("Movie.Name.1080p.BluRay.x264-GROUP.mkv")
	want := []string{"movie", "name"}
	if len(got) != len(want) {
		t.Fatalf("Normalize() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	joined := strings.Join(got, " ")
	for _, leaked := range []string{"1080p", "bluray", "x264", "group", "mkv"} {
		if strings.Contains(joined, leaked) {
			t.Fatalf("normalized form %q still contains %q", joined, leaked)
		}
	}
}

func TestNormalizeTable(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "bracketed group tag",
			input: "[YIFY] Some Movie (2020) 720p WEB-DL",
			want:  []string{"some", "movie", "2020"},
		},
		{
			name:  "stop words dropped",
			input: "The Lord of the Rings",
			want:  []string{"lord", "rings"},
		},
		{
			name:  "audio and subtitle tags",
			input: "Film Dual-Audio DTS-HD ESub AAC.mp4",
			want:  []string{"film"},
		},
		{
			name:  "order preserved",
			input: "Zebra Alpha Movie",
			want:  []string{"zebra", "alpha", "movie"},
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "only descriptors",
			input: "1080p HEVC WEB-Rip [GRP].mkv",
			want:  nil,
		},
		{
			name:  "punctuation collapses",
			input: "Science_Fiction!!!   Double--Feature",
			want:  []string{"science", "fiction", "double", "feature"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := title.Normalize(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("Normalize(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("token[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Movie.Name.1080p.BluRay.x264-GROUP.mkv",
		"The Great Escape 1963 WEB-DL",
		"Charlotte's Web/DL edition",
		"web of dl",
		"plain title",
		"",
	}
	for _, input := range inputs {
		once := title.Canonical(input)
		twice := title.Canonical(once)
		if once != twice {
			t.Errorf("Canonical not idempotent for %q: %q != %q", input, once, twice)
		}
	}
}

func TestExtractYear(t *testing.T) {
	tests := []struct {
		input string
		want  int
		ok    bool
	}{
		{"Movie 2023 1080p", 2023, true},
		{"Classic 1959 restoration 1999", 1959, true},
		{"no year here", 0, false},
		{"12023 is not a year", 0, false},
		{"future 2150", 0, false},
		{"edge 1900", 1900, true},
		{"edge 2099", 2099, true},
	}
	for _, tt := range tests {
		got, ok := title.ExtractYear(tt.input)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ExtractYear(%q) = (%d, %v), want (%d, %v)", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}
