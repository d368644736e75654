package device

import "os"

// chunkedReadAt reads len(buf) bytes starting at byte offset `off` in
// `file`, splitting the transfer into contiguous reads no larger than
// `mdts` bytes each, preserving order.
func chunkedReadAt(file *os.File, off int64, buf []byte, mdts uint32) error {
	pos := 0
	for pos < len(buf) {
		n := len(buf) - pos
		if uint32(n) > mdts {
			n = int(mdts)
		}
		if _, err := file.ReadAt(buf[pos:pos+n], off+int64(pos)); err != nil {
			return err
		}
		pos += n
	}
	return nil
}

// chunkedWriteAt writes buf starting at byte offset `off` in `file`,
// splitting the transfer into contiguous writes no larger than `mdts`
// bytes each, preserving order.
func chunkedWriteAt(file *os.File, off int64, buf []byte, mdts uint32) error {
	pos := 0
	for pos < len(buf) {
		n := len(buf) - pos
		if uint32(n) > mdts {
			n = int(mdts)
		}
		if _, err := file.WriteAt(buf[pos:pos+n], off+int64(pos)); err != nil {
			return err
		}
		pos += n
	}
	return nil
}
