package session

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/metoushela/megan/internal/provider"
	"github.com/metoushela/megan/pkg/message"
)

type stubUploader struct {
	fail  map[string]bool
	calls []string
}

func (u *stubUploader) Upload(_ context.Context, url, mimeType string) (provider.FileRef, error) {
	u.calls = append(u.calls, url)
	if u.fail[url] {
		return provider.FileRef{}, errors.New("upload rejected")
	}
	return provider.FileRef{URI: "files/" + url, MIMEType: mimeType}, nil
}

func TestComposeSeedsPersonaOnEmptyHistory(t *testing.T) {
	t.Parallel()

	composer := NewComposer()
	composed, userTurn := composer.Compose(context.Background(), nil, "Bonjour !", nil)

	if len(composed) != 3 {
		t.Fatalf("composed %d turns, want 3 (preamble pair + user turn)", len(composed))
	}
	if composed[0].Role != provider.RoleUser || !strings.Contains(composed[0].Text(), "Megan Education") {
		t.Errorf("first turn = %+v, want persona instruction", composed[0])
	}
	if composed[1].Role != provider.RoleModel {
		t.Errorf("second turn role = %q, want %q", composed[1].Role, provider.RoleModel)
	}
	if composed[2].Text() != "Bonjour !" {
		t.Errorf("last turn text = %q, want user text", composed[2].Text())
	}
	// The persistable turn is the bare user turn, not the preamble.
	if userTurn.Text() != "Bonjour !" || userTurn.Role != provider.RoleUser {
		t.Errorf("userTurn = %+v, want plain user turn", userTurn)
	}
}

func TestComposeReplaysHistoryWithoutPersona(t *testing.T) {
	t.Parallel()

	history := []provider.Turn{
		provider.NewTextTurn(provider.RoleUser, "Salut"),
		provider.NewTextTurn(provider.RoleModel, "Bonjour !"),
	}
	composer := NewComposer()
	composed, _ := composer.Compose(context.Background(), history, "Et maintenant ?", nil)

	if len(composed) != 3 {
		t.Fatalf("composed %d turns, want 3", len(composed))
	}
	if strings.Contains(composed[0].Text(), "Megan Education") {
		t.Error("persona preamble injected despite existing history")
	}
	if composed[0].Text() != "Salut" || composed[2].Text() != "Et maintenant ?" {
		t.Errorf("history order not preserved: %+v", composed)
	}
}

func TestComposeUploadsMediaAttachments(t *testing.T) {
	t.Parallel()

	up := &stubUploader{}
	composer := NewComposer(WithUploader(up))

	atts := []message.Attachment{
		{Kind: message.AttachmentPhoto, URL: "a.jpg", MIMEType: "image/jpeg"},
		{Kind: "file", URL: "doc.pdf", MIMEType: "application/pdf"},
		{Kind: message.AttachmentVideo, URL: "b.mp4", MIMEType: "video/mp4"},
	}
	_, userTurn := composer.Compose(context.Background(), nil, "regarde", atts)

	if len(up.calls) != 2 {
		t.Fatalf("uploaded %d attachments, want 2 (media only): %v", len(up.calls), up.calls)
	}
	var fileParts int
	for _, p := range userTurn.Parts {
		if p.FileData != nil {
			fileParts++
		}
	}
	if fileParts != 2 {
		t.Errorf("user turn has %d file parts, want 2", fileParts)
	}
}

func TestComposeUploadFailureIsBestEffort(t *testing.T) {
	t.Parallel()

	up := &stubUploader{fail: map[string]bool{"broken.jpg": true}}
	composer := NewComposer(WithUploader(up))

	atts := []message.Attachment{
		{Kind: message.AttachmentPhoto, URL: "broken.jpg", MIMEType: "image/jpeg"},
		{Kind: message.AttachmentPhoto, URL: "fine.jpg", MIMEType: "image/jpeg"},
	}
	_, userTurn := composer.Compose(context.Background(), nil, "photos", atts)

	var refs []string
	for _, p := range userTurn.Parts {
		if p.FileData != nil {
			refs = append(refs, p.FileData.URI)
		}
	}
	if len(refs) != 1 || refs[0] != "files/fine.jpg" {
		t.Errorf("file refs = %v, want only the successful upload", refs)
	}
}

func TestComposeWithoutUploaderIgnoresAttachments(t *testing.T) {
	t.Parallel()

	composer := NewComposer()
	_, userTurn := composer.Compose(context.Background(), nil, "photo",
		[]message.Attachment{{Kind: message.AttachmentPhoto, URL: "a.jpg"}})

	if len(userTurn.Parts) != 1 {
		t.Errorf("user turn has %d parts, want text only", len(userTurn.Parts))
	}
}
