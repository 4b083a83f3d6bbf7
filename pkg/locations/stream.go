package locations

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// OpenDecompressed оборачивает поток в декомпрессор согласно суффиксу
// сжатия пути (.gz, .zst), чтобы кодеки видели уже распакованные байты.
// compression - результат dataset.CompressionFromPath; пустая строка
// возвращает поток как есть.
func OpenDecompressed(rc io.ReadCloser, compression string) (io.ReadCloser, error) {
	switch compression {
	case "":
		return rc, nil
	case "gz":
		gr, err := gzip.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return &decompressedStream{inner: gr, raw: rc}, nil
	case "zst":
		zr, err := zstd.NewReader(rc)
		if err != nil {
			rc.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		return &decompressedStream{inner: zr.IOReadCloser(), raw: rc}, nil
	default:
		rc.Close()
		return nil, fmt.Errorf("unknown compression suffix %q", compression)
	}
}

// decompressedStream закрывает и декомпрессор, и исходный поток
type decompressedStream struct {
	inner io.ReadCloser
	raw   io.ReadCloser
}

func (s *decompressedStream) Read(p []byte) (int, error) {
	return s.inner.Read(p)
}

func (s *decompressedStream) Close() error {
	err := s.inner.Close()
	if rawErr := s.raw.Close(); err == nil {
		err = rawErr
	}
	return err
}
