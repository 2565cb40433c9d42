package extract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecognizer struct {
	text  string
	err   error
	calls int
	got   []byte
}

func (s *stubRecognizer) Recognize(_ context.Context, r io.Reader) (string, error) {
	s.calls++
	s.got, _ = io.ReadAll(r)
	return s.text, s.err
}

func TestClassify(t *testing.T) {
	tests := []struct {
		contentType string
		want        Kind
	}{
		{"application/pdf", PDF},
		{"Application/PDF", PDF},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", DOCX},
		{"text/plain", PlainText},
		{"text/plain; charset=utf-8", PlainText},
		{"image/png", Image},
		{"image/jpeg", Image},
		{"image/x-custom", Image},
		{"image/", Image},
		{"text/csv", Unknown},
		{"application/zip", Unknown},
		{"application/msword", Unknown},
		{"", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.contentType))
		})
	}
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "pdf", PDF.String())
	assert.Equal(t, "docx", DOCX.String())
	assert.Equal(t, "text", PlainText.String())
	assert.Equal(t, "image", Image.String())
	assert.Equal(t, "unknown", Unknown.String())
}

func TestExtract_UnsupportedTypeDoesNotRead(t *testing.T) {
	ocr := &stubRecognizer{}
	r := &countingReader{r: strings.NewReader("col1,col2")}

	text, kind, err := New(ocr).Extract(context.Background(), r, "text/csv")

	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.Equal(t, Unknown, kind)
	assert.Empty(t, text)
	assert.Zero(t, r.n)
	assert.Zero(t, ocr.calls)
}

func TestExtract_PlainText(t *testing.T) {
	text, kind, err := New(nil).Extract(context.Background(), strings.NewReader("hello world"), "text/plain")

	require.NoError(t, err)
	assert.Equal(t, PlainText, kind)
	assert.Equal(t, "hello world", text)
}

func TestExtract_PlainTextVerbatim(t *testing.T) {
	in := "  héllo\r\n\tworld 日本語\n\n"

	text, _, err := New(nil).Extract(context.Background(), strings.NewReader(in), "text/plain")

	require.NoError(t, err)
	assert.Equal(t, in, text)
}

func TestExtract_PlainTextEmpty(t *testing.T) {
	text, _, err := New(nil).Extract(context.Background(), strings.NewReader(""), "text/plain")

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestExtract_PlainTextInvalidUTF8(t *testing.T) {
	in := []byte("abc\xffdef")

	_, kind, err := New(nil).Extract(context.Background(), bytes.NewReader(in), "text/plain")

	assert.Equal(t, PlainText, kind)
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "want *DecodeError, got %T", err)
	assert.Equal(t, 3, decodeErr.Offset)
	assert.NotEmpty(t, decodeErr.Error())
}

func TestExtract_Image(t *testing.T) {
	ocr := &stubRecognizer{text: "recognized"}

	text, kind, err := New(ocr).Extract(context.Background(), strings.NewReader("img-bytes"), "image/png")

	require.NoError(t, err)
	assert.Equal(t, Image, kind)
	assert.Equal(t, "recognized", text)
	assert.Equal(t, 1, ocr.calls)
	assert.Equal(t, []byte("img-bytes"), ocr.got)
}

func TestExtract_ImageFailure(t *testing.T) {
	ocr := &stubRecognizer{err: errors.New("decode image: unknown format")}

	_, kind, err := New(ocr).Extract(context.Background(), strings.NewReader("garbage"), "image/png")

	assert.Equal(t, Image, kind)
	var ocrErr *OCRError
	require.True(t, errors.As(err, &ocrErr), "want *OCRError, got %T", err)
	assert.Equal(t, "Error processing image: decode image: unknown format", ocrErr.Error())
}

func TestExtract_ImageWithoutRecognizer(t *testing.T) {
	_, _, err := New(nil).Extract(context.Background(), strings.NewReader("x"), "image/jpeg")

	var ocrErr *OCRError
	assert.True(t, errors.As(err, &ocrErr))
}

func TestExtract_DOCX(t *testing.T) {
	body := `<w:p><w:r><w:t>First paragraph</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t xml:space="preserve">Split </w:t></w:r><w:r><w:t>runs</w:t></w:r></w:p>` +
		`<w:p></w:p>` +
		`<w:p><w:r><w:t>a</w:t><w:tab/><w:t>b</w:t><w:br/><w:t>c</w:t></w:r></w:p>`
	doc := buildDOCX(t, body)

	text, kind, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), mimeDOCX)

	require.NoError(t, err)
	assert.Equal(t, DOCX, kind)
	assert.Equal(t, "First paragraph\nSplit runs\n\na\tb\nc\n", text)
}

func TestExtract_DOCXIgnoresTabStops(t *testing.T) {
	body := `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr>` +
		`<w:r><w:t>indented</w:t></w:r></w:p>`
	doc := buildDOCX(t, body)

	text, _, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), mimeDOCX)

	require.NoError(t, err)
	assert.Equal(t, "indented\n", text)
}

func TestExtract_DOCXTableCells(t *testing.T) {
	body := `<w:tbl><w:tr>` +
		`<w:tc><w:p><w:r><w:t>cell one</w:t></w:r></w:p></w:tc>` +
		`<w:tc><w:p><w:r><w:t>cell two</w:t></w:r></w:p></w:tc>` +
		`</w:tr></w:tbl>`
	doc := buildDOCX(t, body)

	text, _, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), mimeDOCX)

	require.NoError(t, err)
	assert.Equal(t, "cell one\ncell two\n", text)
}

func TestExtract_DOCXTextBoxSkipped(t *testing.T) {
	box := `<w:txbxContent><w:p><w:r><w:t>Box</w:t></w:r></w:p></w:txbxContent>`
	body := `<w:p><w:r><w:t>Body</w:t></w:r><w:r><mc:AlternateContent>` +
		`<mc:Choice Requires="wps"><w:drawing><wp:anchor><a:graphic><a:graphicData>` +
		`<wps:wsp><wps:txbx>` + box + `</wps:txbx></wps:wsp>` +
		`</a:graphicData></a:graphic></wp:anchor></w:drawing></mc:Choice>` +
		`<mc:Fallback><w:pict><v:shape><v:textbox>` + box + `</v:textbox></v:shape></w:pict></mc:Fallback>` +
		`</mc:AlternateContent></w:r></w:p>` +
		`<w:p><w:r><w:t>After</w:t></w:r></w:p>`
	doc := buildDOCX(t, body)

	text, _, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), mimeDOCX)

	require.NoError(t, err)
	assert.Equal(t, "Body\nAfter\n", text)
}

func TestExtract_DOCXUsesAlternateContentChoice(t *testing.T) {
	body := `<w:p><w:r><mc:AlternateContent>` +
		`<mc:Choice Requires="w14"><w:t>current</w:t></mc:Choice>` +
		`<mc:Fallback><w:t>legacy</w:t></mc:Fallback>` +
		`</mc:AlternateContent></w:r></w:p>`
	doc := buildDOCX(t, body)

	text, _, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), mimeDOCX)

	require.NoError(t, err)
	assert.Equal(t, "current\n", text)
}

func TestExtract_DOCXInvalidArchive(t *testing.T) {
	_, kind, err := New(nil).Extract(context.Background(), strings.NewReader("not a zip"), mimeDOCX)

	assert.Equal(t, DOCX, kind)
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr), "want *ExtractionError, got %T", err)
	assert.Equal(t, DOCX, extractErr.Kind)
}

func TestExtract_DOCXMissingDocumentPart(t *testing.T) {
	archive := buildZip(t, map[string]string{"[Content_Types].xml": "<Types/>"})

	_, _, err := New(nil).Extract(context.Background(), bytes.NewReader(archive), mimeDOCX)

	var extractErr *ExtractionError
	assert.True(t, errors.As(err, &extractErr))
}

func TestExtract_PDF(t *testing.T) {
	doc := buildPDF([]string{"Hello from page one", "And page two"})

	text, kind, err := New(nil).Extract(context.Background(), bytes.NewReader(doc), "application/pdf")

	require.NoError(t, err)
	assert.Equal(t, PDF, kind)
	first := strings.Index(text, "Hello from page one")
	second := strings.Index(text, "And page two")
	require.GreaterOrEqual(t, first, 0, "page one text missing: %q", text)
	require.GreaterOrEqual(t, second, 0, "page two text missing: %q", text)
	assert.Less(t, first, second)
}

func TestExtract_PDFInvalid(t *testing.T) {
	_, kind, err := New(nil).Extract(context.Background(), strings.NewReader("%PDF-1.4 truncated"), "application/pdf")

	assert.Equal(t, PDF, kind)
	var extractErr *ExtractionError
	require.True(t, errors.As(err, &extractErr), "want *ExtractionError, got %T", err)
	assert.Equal(t, PDF, extractErr.Kind)
}

func TestExtract_ReadFailure(t *testing.T) {
	boom := errors.New("connection reset")

	_, _, err := New(nil).Extract(context.Background(), &failingReader{err: boom}, "text/plain")

	assert.ErrorIs(t, err, boom)
}

type countingReader struct {
	r io.Reader
	n int
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += n
	return n, err
}

type failingReader struct{ err error }

func (f *failingReader) Read([]byte) (int, error) { return 0, f.err }
