package openai_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jarvis/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "en", r.FormValue("language"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "RIFF-audio", string(data))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "what time is it"})
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("test-key", "en-US", server.URL)

	text, err := client.Transcribe(context.Background(), []byte("RIFF-audio"))

	require.NoError(t, err)
	assert.Equal(t, "what time is it", text)
}

func TestWhisperClient_NamesUploadAfterContainer(t *testing.T) {
	var filename string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		filename = header.Filename

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": "hello"})
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("test-key", "en", server.URL)

	_, err := client.Transcribe(context.Background(), []byte("ID3\x04\x00\x00mp3-frames"))
	require.NoError(t, err)
	assert.Equal(t, "utterance.mp3", filename)
}

func TestWhisperClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	client := openai.NewWhisperClientWithURL("wrong", "en", server.URL)

	_, err := client.Transcribe(context.Background(), []byte("audio"))

	assert.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestChatClient_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "It is 3 PM."}},
			},
		})
	}))
	defer server.Close()

	client := openai.NewChatClientWithURL("test-key", openai.ChatConfig{
		Model:             "gpt-test",
		SystemInstruction: "You are JARVIS.",
	}, server.URL)

	reply, err := client.Generate(context.Background(), "what time is it")

	require.NoError(t, err)
	assert.Equal(t, "It is 3 PM.", reply)
	assert.Equal(t, "gpt-test", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	assert.Equal(t, "what time is it", got.Messages[1].Content)
}

func TestChatClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	client := openai.NewChatClientWithURL("test-key", openai.ChatConfig{}, server.URL)

	_, err := client.Generate(context.Background(), "hello")

	assert.Error(t, err)
}

type recordingPlayer struct {
	pcm        []byte
	sampleRate int
}

func (p *recordingPlayer) Play(_ context.Context, pcm []byte, sampleRate int) error {
	p.pcm = pcm
	p.sampleRate = sampleRate
	return nil
}

func TestSpeechClient_Speak(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/audio/speech") {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "audio/pcm")
		w.Write([]byte{1, 0, 2, 0})
	}))
	defer server.Close()

	player := &recordingPlayer{}
	client := openai.NewSpeechClientWithURL("test-key", openai.SpeechConfig{}, player, server.URL)

	err := client.Speak(context.Background(), "It is 3 PM.")

	require.NoError(t, err)
	assert.Equal(t, "It is 3 PM.", got["input"])
	assert.Equal(t, "pcm", got["response_format"])
	assert.Equal(t, []byte{1, 0, 2, 0}, player.pcm)
	assert.Equal(t, 24000, player.sampleRate)
}
