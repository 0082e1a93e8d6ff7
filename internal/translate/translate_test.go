package translate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type stubTranslator struct {
	calls int
	out   string
	err   error
	gotSrc, gotDst string
}

func (s *stubTranslator) Translate(_ context.Context, text, source, target string) (Result, error) {
	s.calls++
	s.gotSrc, s.gotDst = source, target
	return Result{Text: s.out}, s.err
}

func TestContainsCJK(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"machine learning", false},
		{"机器学习", true},
		{"deep 学习", true},
		{"ｆｕｌｌｗｉｄｔｈ", false},
		{"日本語", true},
		{"한국어", false},
		{"", false},
	}
	for _, c := range cases {
		if got := ContainsCJK(c.in); got != c.want {
			t.Errorf("ContainsCJK(%q)=%v want %v", c.in, got, c.want)
		}
	}
}

func TestNormalize_NonCJKUntouched(t *testing.T) {
	st := &stubTranslator{out: "never"}
	in := "  graph neural networks  "
	got, err := Normalize(context.Background(), st, in)
	if err != nil {
		t.Fatal(err)
	}
	if got != in {
		t.Fatalf("expected identical query, got %q", got)
	}
	if st.calls != 0 {
		t.Fatalf("translator must not be called, calls=%d", st.calls)
	}
}

func TestNormalize_TranslatesCJK(t *testing.T) {
	st := &stubTranslator{out: " machine learning "}
	got, err := Normalize(context.Background(), st, "机器学习")
	if err != nil {
		t.Fatal(err)
	}
	if got != "machine learning" {
		t.Fatalf("got %q", got)
	}
	if st.calls != 1 || st.gotSrc != "zh-CN" || st.gotDst != "en" {
		t.Fatalf("unexpected call: %+v", st)
	}
}

func TestNormalize_ErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	_, err := Normalize(context.Background(), &stubTranslator{err: boom}, "机器学习")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
	_, err = Normalize(context.Background(), &stubTranslator{out: "  "}, "机器学习")
	if !errors.Is(err, ErrEmptyTranslation) {
		t.Fatalf("expected ErrEmptyTranslation, got %v", err)
	}
}

func TestNormalizer_Fallback(t *testing.T) {
	n := &Normalizer{Translator: &stubTranslator{err: errors.New("offline")}, Fallback: true}
	got, err := n.Normalize(context.Background(), "机器学习")
	if err != nil {
		t.Fatal(err)
	}
	if got != "机器学习" {
		t.Fatalf("fallback should keep original query, got %q", got)
	}
}

func TestNormalizer_CustomTags(t *testing.T) {
	st := &stubTranslator{out: "apprentissage"}
	n := &Normalizer{Translator: st, Source: "zh-TW", Target: "fr"}
	if _, err := n.Normalize(context.Background(), "學習"); err != nil {
		t.Fatal(err)
	}
	if st.gotSrc != "zh-TW" || st.gotDst != "fr" {
		t.Fatalf("tags not forwarded: %s -> %s", st.gotSrc, st.gotDst)
	}
}

func TestValidateTag(t *testing.T) {
	if err := ValidateTag("zh-CN"); err != nil {
		t.Fatalf("zh-CN: %v", err)
	}
	if err := ValidateTag("not a tag!"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGoogle_Translate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client") != "gtx" || q.Get("sl") != "zh-cn" || q.Get("tl") != "en" || q.Get("q") != "机器学习。深度学习" {
			t.Errorf("unexpected params: %v", q)
		}
		_, _ = w.Write([]byte(`[[["Machine learning. ","机器学习。",null,null,10],["Deep learning","深度学习",null,null,10]],null,"zh-CN"]`))
	}))
	defer srv.Close()
	old := googleBase
	googleBase = srv.URL
	t.Cleanup(func() { googleBase = old })

	g := &Google{HTTPClient: srv.Client()}
	res, err := g.Translate(context.Background(), "机器学习。深度学习", "zh-CN", "en")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Machine learning. Deep learning" {
		t.Fatalf("got %q", res.Text)
	}
}

func TestGoogle_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()
	old := googleBase
	googleBase = srv.URL
	t.Cleanup(func() { googleBase = old })

	if _, err := (&Google{HTTPClient: srv.Client()}).Translate(context.Background(), "x", "zh-CN", "en"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseGoogle_BadShapes(t *testing.T) {
	for _, body := range []string{`{}`, `[]`, `["x"]`, `[[]]`} {
		if _, err := parseGoogle([]byte(body)); err == nil {
			t.Errorf("expected error for %s", body)
		}
	}
}

type stubLLM struct {
	req     openai.ChatCompletionRequest
	content string
}

func (s *stubLLM) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.req = req
	return openai.ChatCompletionResponse{Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: s.content}}}}, nil
}

func TestLLM_Translate(t *testing.T) {
	stub := &stubLLM{content: "\"machine learning\"\n"}
	l := &LLM{Client: stub, Model: "test-model"}
	res, err := l.Translate(context.Background(), "机器学习", "zh-CN", "en")
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "machine learning" {
		t.Fatalf("got %q", res.Text)
	}
	if stub.req.Model != "test-model" || len(stub.req.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", stub.req)
	}
	sys := stub.req.Messages[0].Content
	if !strings.Contains(sys, "Chinese") || !strings.Contains(sys, "English") {
		t.Fatalf("prompt should name languages: %q", sys)
	}
}

func TestPassthrough(t *testing.T) {
	res, err := Passthrough{}.Translate(context.Background(), "机器学习", "zh-CN", "en")
	if err != nil || res.Text != "机器学习" {
		t.Fatalf("got %q %v", res.Text, err)
	}
}
