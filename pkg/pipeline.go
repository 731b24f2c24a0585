// Package pkg provides the compression pipeline for Nintendo 64 ROM images.
// This file contains the processor that decompresses every file of a retail
// image and packs a decompressed image back into the retail layout.
package pkg

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/hansbonini/z64tools/pkg/common"
	"github.com/hansbonini/z64tools/pkg/pool"
	"github.com/hansbonini/z64tools/pkg/rom"
	"github.com/hansbonini/z64tools/pkg/yaz0"
)

// ROMProcessor handles ROM operations (compress/decompress)
type ROMProcessor struct {
	opts Options
}

// NewROMProcessor creates a new ROM processor instance
func NewROMProcessor(opts Options) *ROMProcessor {
	if opts.Layout == (rom.Layout{}) {
		opts.Layout = rom.N64Layout
	}
	return &ROMProcessor{opts: opts}
}

// batchStats counts what happened to the content entries of one run
type batchStats struct {
	compressed int
	raw        int
	dummy      int
	inBytes    uint64
	outBytes   uint64
}

// DecompressROM expands a retail image into a decompressed image
func (p *ROMProcessor) DecompressROM(inputFile, outputFile string) error {
	c, err := p.open(inputFile, p.opts.Layout.CompressedSize, p.opts.Layout.DecompressedSize)
	if err != nil {
		return err
	}

	if err := p.Decompress(c); err != nil {
		return err
	}

	return p.save(c, outputFile)
}

// CompressROM packs a decompressed image back into the retail layout
func (p *ROMProcessor) CompressROM(inputFile, outputFile string) error {
	c, err := p.open(inputFile, p.opts.Layout.DecompressedSize, p.opts.Layout.CompressedSize)
	if err != nil {
		return err
	}

	if err := p.Compress(c); err != nil {
		return err
	}

	return p.save(c, outputFile)
}

// open loads an image of the expected size and reads its file table
func (p *ROMProcessor) open(inputFile string, inSize, outSize int) (*rom.Container, error) {
	image, err := rom.LoadImage(inputFile, inSize)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToLoadROM, err)
	}
	common.LogInfo(common.InfoLoadedROM, inputFile, humanize.IBytes(uint64(len(image))))

	c, err := rom.NewContainer(image, outSize)
	if err != nil {
		return nil, common.FormatError(common.ErrFailedToReadTable, err)
	}
	c.Checksum = p.opts.Checksum
	common.LogInfo(common.InfoTableFound, c.TableOffset(), c.EntryCount())

	return c, nil
}

func (p *ROMProcessor) save(c *rom.Container, outputFile string) error {
	if err := c.Save(outputFile); err != nil {
		return common.FormatError(common.ErrFailedToSaveROM, err)
	}
	common.LogInfo(common.InfoROMSaved, outputFile)
	return nil
}

// newPool creates the worker pool for one batch
func (p *ROMProcessor) newPool() *pool.Pool {
	return pool.New(p.opts.Workers, func(done, total int) {
		common.LogDebug(common.DebugProgress, total-done)
		if p.opts.Progress != nil {
			p.opts.Progress(done, total)
		}
	})
}

// contentRange returns the first non-dummy content entry and the index of
// the reserved last entry. Entries in between are the regular files.
func contentRange(c *rom.Container) (first, last int, err error) {
	last = c.EntryCount() - 1
	for i := rom.FirstContentEntry; i < last; i++ {
		if !c.InputEntry(i).IsDummy() {
			return i, last, nil
		}
	}
	return 0, 0, fmt.Errorf("%w: no content entries", rom.ErrCorruptTable)
}

// Decompress expands every compressed file to its virtual address in the
// output image, points every file's physical address at its virtual one and
// embeds the compression index after the last file.
func (p *ROMProcessor) Decompress(c *rom.Container) error {
	first, last, err := contentRange(c)
	if err != nil {
		return err
	}

	c.ResizeOutput(p.opts.Layout.DecompressedSize)
	out := c.Output()

	// Validate every entry before any job starts.
	payloads := make([][]byte, c.EntryCount())
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() {
			continue
		}
		if int64(entry.EndV) > int64(len(out)) {
			return fmt.Errorf("%w: entry %d V[0x%08X-0x%08X] past the %d byte output",
				ErrOutputOverflow, i, entry.StartV, entry.EndV, len(out))
		}
		data, err := c.EntryData(i)
		if err != nil {
			return common.FormatError(common.ErrFailedToDecompressEntry, err)
		}
		payloads[i] = data
	}

	index := NewCompressionIndex(c.EntryCount())
	decoded := make([][]byte, c.EntryCount())
	stats := batchStats{}

	workers := p.newPool()
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() || !entry.IsCompressed() {
			continue
		}
		index.Set(i, true)
		i := i
		workers.Submit(fmt.Sprintf("entry %d", i), func() error {
			buf, err := yaz0.Decode(payloads[i], int(entry.Size()))
			if err != nil {
				return common.FormatError(common.ErrFailedToDecompressEntry, err)
			}
			decoded[i] = buf
			common.LogDebug(common.DebugEntryDecoded, i, entry.StartP, entry.EndP, entry.StartV, entry.EndV)
			return nil
		})
	}
	common.LogDebug(common.DebugProgress, workers.Remaining())
	if err := workers.Wait(); err != nil {
		return err
	}

	start := c.InputEntry(first).StartP
	if int64(start) > int64(len(out)) {
		return fmt.Errorf("%w: first file at 0x%08X", ErrOutputOverflow, start)
	}
	clear(out[start:])

	lastEnd := c.InputEntry(first).StartV
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() {
			common.LogDebug(common.DebugEntryDummy, i)
			stats.dummy++
			continue
		}

		data := payloads[i]
		if entry.IsCompressed() {
			data = decoded[i]
			stats.compressed++
		} else {
			common.LogDebug(common.DebugEntryCopied, i, len(data), entry.StartV)
			stats.raw++
		}
		copy(out[entry.StartV:entry.EndV], data)
		stats.inBytes += uint64(len(payloads[i]))
		stats.outBytes += uint64(len(data))

		outEntry := c.OutputEntry(i)
		outEntry.StartP = entry.StartV
		outEntry.EndP = 0
		lastEnd = entry.EndV
	}

	if err := index.Embed(out, int(lastEnd)); err != nil {
		return err
	}
	c.OutputEntry(last).StartP = lastEnd
	common.LogInfo(common.InfoIndexWritten, lastEnd)

	common.LogInfo(common.InfoDecompressedEntries, stats.compressed+stats.raw, stats.compressed, stats.raw, stats.dummy)
	common.LogInfo(common.InfoImageSizes, humanize.IBytes(stats.inBytes), humanize.IBytes(stats.outBytes))
	return nil
}

// Compress re-compresses every file the compression index flags, then
// packs all files back to back starting at the first file's physical
// address. Nothing is written to the output until every job succeeded.
func (p *ROMProcessor) Compress(c *rom.Container) error {
	first, last, err := contentRange(c)
	if err != nil {
		return err
	}

	index, err := p.loadIndex(c)
	if err != nil {
		return err
	}

	payloads := make([][]byte, c.EntryCount())
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() {
			continue
		}
		if entry.IsCompressed() {
			return fmt.Errorf("%w: entry %d is stored compressed", ErrCompressedInput, i)
		}
		data, err := c.EntryData(i)
		if err != nil {
			return common.FormatError(common.ErrFailedToCompressEntry, err)
		}
		payloads[i] = data
	}

	compressed := make([][]byte, c.EntryCount())
	workers := p.newPool()
	common.LogInfo(common.InfoCompressingEntries, index.Compressed())
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() || !index.IsCompressed(i) {
			continue
		}
		i := i
		workers.Submit(fmt.Sprintf("entry %d", i), func() error {
			compressed[i] = yaz0.Encode(payloads[i])
			common.LogDebug(common.DebugEntryCompressed, i, entry.StartV, entry.EndV, len(payloads[i]), len(compressed[i]))
			return nil
		})
	}
	common.LogDebug(common.DebugProgress, workers.Remaining())
	if err := workers.Wait(); err != nil {
		return err
	}

	c.ResizeOutput(p.opts.Layout.CompressedSize)
	out := c.Output()

	writePointer := int64(c.InputEntry(first).StartP)
	if writePointer > int64(len(out)) {
		return fmt.Errorf("%w: first file at 0x%08X", ErrOutputOverflow, writePointer)
	}
	clear(out[writePointer:])

	stats := batchStats{}
	for i := first; i < last; i++ {
		entry := c.InputEntry(i)
		if entry.IsDummy() {
			stats.dummy++
			continue
		}

		data := payloads[i]
		if index.IsCompressed(i) {
			data = compressed[i]
		}
		end := writePointer + int64(len(data))
		if end > int64(len(out)) {
			return fmt.Errorf("%w: entry %d needs 0x%X bytes at 0x%X",
				ErrOutputOverflow, i, len(data), writePointer)
		}
		endP, err := common.SafeInt64ToUint32(end)
		if err != nil {
			return fmt.Errorf("%w: entry %d: %v", ErrOutputOverflow, i, err)
		}
		copy(out[writePointer:end], data)

		outEntry := c.OutputEntry(i)
		outEntry.StartP = uint32(writePointer)
		outEntry.EndP = 0
		if index.IsCompressed(i) {
			outEntry.EndP = endP
			stats.compressed++
		} else {
			stats.raw++
		}
		common.LogDebug(common.DebugEntryPlaced, i, outEntry.StartP, end)

		stats.inBytes += uint64(len(payloads[i]))
		stats.outBytes += uint64(len(data))
		writePointer = end
	}

	// Retail images carry no embedded index.
	reserved := c.OutputEntry(last)
	reserved.StartP = 0
	reserved.EndP = 0

	common.LogInfo(common.InfoCompressedEntries, stats.compressed+stats.raw, stats.compressed, stats.raw, stats.dummy)
	common.LogInfo(common.InfoImageSizes, humanize.IBytes(stats.inBytes), humanize.IBytes(stats.outBytes))
	return nil
}

// loadIndex returns the compression index embedded in a decompressed
// image, falling back to the configured flag file.
func (p *ROMProcessor) loadIndex(c *rom.Container) (*CompressionIndex, error) {
	index, ok, err := EmbeddedIndex(c.Input(), c.Table())
	if err != nil {
		return nil, err
	}
	if ok {
		if p.opts.IndexFile != "" {
			common.LogWarn(common.WarnFlagFileIgnored, p.opts.IndexFile)
		}
		return index, nil
	}

	if p.opts.IndexFile != "" {
		index, err := ReadFlagFile(p.opts.IndexFile)
		if err != nil {
			return nil, common.FormatError(common.ErrFailedToReadIndex, err)
		}
		if index.Len() != c.EntryCount() {
			common.LogWarn(common.WarnIndexLengthDiffers, index.Len(), c.EntryCount())
		}
		common.LogInfo(common.InfoIndexFromFlagFile, p.opts.IndexFile)
		return index, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrMissingCompressionIndex, common.ErrMissingIndexHint)
}
