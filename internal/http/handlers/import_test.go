package handlers

import (
	"bytes"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/admission-desk/backend/internal/models"
)

func TestParseApplicationsCSV(t *testing.T) {
	content := "fio,submitted_at,queue_type,is_priority\n" +
		"Иванов Иван,2026-08-20T10:00:00Z,epgu,true\n" +
		"Петров Пётр,2026-08-20T11:00:00Z,lk,\n"
	fh := makeMultipartFile(t, "applications", "applications.csv", content)
	apps, errs := parseApplicationsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(apps) != 2 {
		t.Fatalf("expected 2 applications, got %d", len(apps))
	}
	if apps[0].QueueType != models.QueueEPGU || !apps[0].IsPriority {
		t.Fatalf("unexpected first row: %+v", apps[0])
	}
	if apps[1].QueueType != models.QueueLK || apps[1].IsPriority {
		t.Fatalf("unexpected second row: %+v", apps[1])
	}
}

func TestParseApplicationsCSV_UnknownQueue(t *testing.T) {
	content := "fio,submitted_at,queue_type,is_priority\n" +
		"Иванов Иван,2026-08-20T10:00:00Z,mos_ru,false\n"
	fh := makeMultipartFile(t, "applications", "applications.csv", content)
	apps, errs := parseApplicationsCSV(fh)
	if len(apps) != 0 {
		t.Fatalf("expected no applications, got %d", len(apps))
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "unknown queue type") {
		t.Fatalf("expected unknown queue error, got %v", errs)
	}
}

func TestParseApplicationsCSV_MissingFIO(t *testing.T) {
	content := "fio,submitted_at,queue_type,is_priority\n" +
		",2026-08-20T10:00:00Z,lk,false\n"
	fh := makeMultipartFile(t, "applications", "applications.csv", content)
	apps, errs := parseApplicationsCSV(fh)
	if len(apps) != 0 {
		t.Fatalf("expected no applications, got %d", len(apps))
	}
	if len(errs) != 1 || !strings.Contains(errs[0], "fio required") {
		t.Fatalf("expected fio error, got %v", errs)
	}
}

func TestParseApplicationsCSV_BOMHeader(t *testing.T) {
	content := "\uFEFFfio,submitted_at,queue_type,is_priority\n" +
		"Сидорова Анна,2026-08-21T09:30:00Z,epgu_mail,false\n"
	fh := makeMultipartFile(t, "applications", "applications.csv", content)
	apps, errs := parseApplicationsCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(apps) != 1 || apps[0].QueueType != models.QueueEPGUMail {
		t.Fatalf("unexpected result: %+v", apps)
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
