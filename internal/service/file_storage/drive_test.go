package file_storage_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/studiobot/internal/service/file_storage"
)

var _ = Describe("DriveFileStorageService", func() {
	var (
		server  *httptest.Server
		storage file_storage.FileStorageService
		queries []string
		created []map[string]any
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		queries = nil
		created = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			w.Header().Set("Content-Type", "application/json")
			switch {
			case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "/files"):
				q := r.URL.Query().Get("q")
				queries = append(queries, q)
				if strings.Contains(q, "name = 'work'") {
					_, _ = w.Write([]byte(`{"files":[{"id":"F_work","name":"work"}]}`))
					return
				}
				_, _ = w.Write([]byte(`{"files":[]}`))
			case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, "/files"):
				var body map[string]any
				Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())
				created = append(created, body)
				_, _ = w.Write([]byte(`{"id":"F_new","name":"` + body["name"].(string) + `"}`))
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		DeferCleanup(server.Close)

		var err error
		storage, err = file_storage.NewDriveFileStorageService(ctx, file_storage.DriveConfig{
			Endpoint: server.URL + "/drive/v3/",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns an existing folder without creating one", func() {
		folder, err := storage.FindOrCreateFolder(ctx, "work", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(folder.ID).To(Equal("F_work"))
		Expect(created).To(BeEmpty())
	})

	It("creates a missing folder under its parent", func() {
		folder, err := storage.FindOrCreateFolder(ctx, "D7 (Marketing)", "F_work")
		Expect(err).NotTo(HaveOccurred())
		Expect(folder.ID).To(Equal("F_new"))
		Expect(queries[0]).To(ContainSubstring("'F_work' in parents"))
		Expect(created).To(HaveLen(1))
		Expect(created[0]).To(HaveKeyWithValue("parents", ConsistOf("F_work")))
		Expect(created[0]).To(HaveKeyWithValue("mimeType", "application/vnd.google-apps.folder"))
	})

	It("escapes quotes in folder names", func() {
		_, err := storage.FindOrCreateFolder(ctx, "REQ-1 (Ann's poster)", "F_dep")
		Expect(err).NotTo(HaveOccurred())
		Expect(queries[0]).To(ContainSubstring(`name = 'REQ-1 (Ann\'s poster)'`))
	})
})
