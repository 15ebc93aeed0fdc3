package model

// Header is the first line of every CSV export.
var Header = []string{"date", "download_speed", "upload_speed"}

// Row is one grouped speedtest result: date, download, upload.
type Row [3]Entry

// Date returns the first slot.
func (r Row) Date() Entry { return r[0] }

// Download returns the second slot.
func (r Row) Download() Entry { return r[1] }

// Upload returns the third slot.
func (r Row) Upload() Entry { return r[2] }

// Fields renders the row as CSV fields, in header order.
func (r Row) Fields() []string {
	return []string{r[0].Field(), r[1].Field(), r[2].Field()}
}

// Ordered reports whether the slots hold Date, Download and Upload entries
// in that order. Rows merged from an aborted run are not ordered.
func (r Row) Ordered() bool {
	return r[0].Key == KeyDate && r[0].IsDate() &&
		r[1].Key == KeyDownload && r[2].Key == KeyUpload
}
