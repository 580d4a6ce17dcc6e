// Package gallery owns the frame's pictures: the SQLite media index, the
// scanner that fills it from the configured folders, and the Service that
// turns the index into a shuffled, endless stream of decoded images.
//
// The scanner records every file it sees with the time of the scan that saw
// it. Entries older than the latest complete scan are pruned, so a deleted
// file disappears from the slideshow after the next rescan.
//
// Service implements slideshow.PictureService:
//
//	svc := gallery.NewService(gallery.ServiceConfig{Library: lib})
//	results := svc.Images(ctx, 1920, 1080)
//	svc.AdvanceToNext()
//	r := <-results // picture.Success, BitmapOperationFailure or StorageFailure
package gallery
