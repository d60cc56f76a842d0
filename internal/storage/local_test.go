package storage

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStorage(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Storage Suite")
}

var _ = Describe("LocalStorage", func() {
	var (
		tmpDir  string
		storage Storage
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		var err error
		storage, err = NewLocalStorage(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("Save", func() {
		var (
			name      string
			data      []byte
			savedPath string
			err       error
		)

		BeforeEach(func() {
			name = "bill.pdf"
			data = []byte("%PDF-1.3 bill")
		})

		JustBeforeEach(func() {
			savedPath, err = storage.Save(name, data)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should return the full path", func() {
				Expect(savedPath).To(Equal(filepath.Join(tmpDir, name)))
			})

			It("should write the file to disk", func() {
				Expect(savedPath).To(BeAnExistingFile())
				written, readErr := os.ReadFile(savedPath)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(written).To(Equal(data))
			})

			It("should not leave temp files behind", func() {
				entries, readErr := os.ReadDir(tmpDir)
				Expect(readErr).NotTo(HaveOccurred())
				Expect(entries).To(HaveLen(1))
			})
		})

		When("an artifact with the same name exists", func() {
			BeforeEach(func() {
				_, saveErr := storage.Save(name, []byte("old"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should replace it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(storage.Get(name)).To(Equal(data))
			})
		})

		When("the name contains a path separator", func() {
			BeforeEach(func() {
				name = "../escape.pdf"
			})

			It("returns ErrInvalidName", func() {
				Expect(err).To(MatchError(ErrInvalidName))
				Expect(filepath.Join(tmpDir, "..", "escape.pdf")).NotTo(BeAnExistingFile())
			})
		})
	})

	Describe("Get", func() {
		var (
			name string
			data []byte
			err  error
		)

		JustBeforeEach(func() {
			data, err = storage.Get(name)
		})

		When("the artifact exists", func() {
			BeforeEach(func() {
				name = "bill.pdf"
				_, saveErr := storage.Save(name, []byte("test file content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should return the artifact data", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(string(data)).To(Equal("test file content"))
			})
		})

		When("the artifact does not exist", func() {
			BeforeEach(func() {
				name = "nonexistent.pdf"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("reading file"))
			})
		})
	})

	Describe("Delete", func() {
		var (
			name string
			err  error
		)

		JustBeforeEach(func() {
			err = storage.Delete(name)
		})

		When("the artifact exists", func() {
			BeforeEach(func() {
				name = "bill.pdf"
				_, saveErr := storage.Save(name, []byte("test content"))
				Expect(saveErr).NotTo(HaveOccurred())
			})

			It("should remove the file from disk", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(filepath.Join(tmpDir, name)).NotTo(BeAnExistingFile())
			})
		})

		When("the artifact does not exist", func() {
			BeforeEach(func() {
				name = "nonexistent.pdf"
			})

			It("returns the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("deleting file"))
			})
		})
	})

	Describe("NewLocalStorage", func() {
		It("should create a missing directory", func() {
			storagePath := filepath.Join(GinkgoT().TempDir(), "bills")
			_, err := NewLocalStorage(storagePath)
			Expect(err).NotTo(HaveOccurred())
			Expect(storagePath).To(BeADirectory())
		})
	})
})
