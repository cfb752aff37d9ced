package fetcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherConfig(t *testing.T) {
	f := NewWithConfig(FetcherConfig{RateLimit: 5, Timeout: 10 * time.Second})

	assert.Equal(t, 5.0, f.config.RateLimit)
	assert.Equal(t, 10*time.Second, f.client.Timeout)
	assert.Equal(t, int64(20<<20), f.config.MaxBytes)
	assert.Equal(t, "screener/1.0", f.config.UserAgent)
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		ref      string
		expected bool
	}{
		{"https://example.com/cv.pdf", true},
		{"http://example.com", true},
		{"ftp://example.com/cv.pdf", false},
		{"resumes/cv.pdf", false},
		{"/tmp/cv.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsURL(tt.ref))
		})
	}
}

func TestJobPostingWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "screener/1.0", r.Header.Get("User-Agent"))
		switch r.URL.Path {
		case "/plain":
			w.Header().Set("Content-Type", "text/plain")
			w.Write([]byte("  Python developer, 5+ years  "))
		default:
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`
				<html>
					<head><title>Careers</title><style>.x{}</style></head>
					<body>
						<nav>Home Jobs</nav>
						<main>
							<h1>Senior Software Engineer</h1>
							<p>5+ years Python, AWS, machine learning.</p>
							<p>Privacy Policy</p>
							<script>track()</script>
						</main>
					</body>
				</html>
			`))
		}
	}))
	defer server.Close()

	f := NewWithConfig(FetcherConfig{RateLimit: 100})

	text, err := f.JobPosting(context.Background(), server.URL+"/job/1")
	require.NoError(t, err)
	assert.Equal(t, "Senior Software Engineer 5+ years Python, AWS, machine learning.", text)

	text, err = f.JobPosting(context.Background(), server.URL+"/plain")
	require.NoError(t, err)
	assert.Equal(t, "Python developer, 5+ years", text)
}

func TestResumeWithMockServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/files/jane.docx":
			w.Write([]byte("docx-bytes"))
		case "/download":
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewWithConfig(FetcherConfig{RateLimit: 100})
	ctx := context.Background()

	r, err := f.Resume(ctx, server.URL+"/files/jane.docx")
	require.NoError(t, err)
	assert.Equal(t, "jane.docx", r.Filename)
	assert.Equal(t, []byte("docx-bytes"), r.Data)
	assert.Equal(t, server.URL+"/files/jane.docx", r.Source)

	r, err = f.Resume(ctx, server.URL+"/download")
	require.NoError(t, err)
	assert.Equal(t, "download.pdf", r.Filename)

	r, err = f.Resume(ctx, server.URL+"/missing.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Equal(t, "missing.pdf", r.Filename)
	assert.Nil(t, r.Data)
}

func TestFetchRejectsLargeBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer server.Close()

	f := NewWithConfig(FetcherConfig{RateLimit: 100, MaxBytes: 16})
	_, err := f.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
}

func TestFetchHonoursCancelledContext(t *testing.T) {
	f := NewWithConfig(FetcherConfig{RateLimit: 100})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Fetch(ctx, "http://127.0.0.1:1/never")
	assert.Error(t, err)
}

func TestFilenameFor(t *testing.T) {
	assert.Equal(t, "resume", filenameFor("https://example.com/", ""))
	assert.Equal(t, "cv.pdf", filenameFor("https://example.com/a/cv.pdf?x=1", "text/html"))
	assert.Equal(t, "cv.docx", filenameFor("https://example.com/cv", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
}
