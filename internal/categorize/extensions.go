package categorize

// Generic extension tables, consulted only after the application-signature
// rules have had their chance.

func extSet(exts ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return set
}

var (
	imageExtensions = extSet(
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif",
		".webp", ".heic", ".heif",
	)

	videoExtensions = extSet(
		".mp4", ".avi", ".mov", ".wmv", ".flv", ".mkv", ".webm",
		".m4v", ".mpeg", ".mpg", ".3gp",
	)

	documentExtensions = extSet(
		".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx",
		".odt", ".ods", ".odp", ".txt", ".rtf", ".csv", ".pages",
		".numbers", ".keynote",
	)

	audioExtensions = extSet(
		".mp3", ".wav", ".aac", ".flac", ".m4a", ".wma", ".ogg",
		".opus", ".aiff", ".amr",
	)

	archiveExtensions = extSet(
		".zip", ".rar", ".7z", ".tar", ".gz", ".bz2", ".xz", ".tgz",
	)

	databaseExtensions = extSet(
		".db", ".sqlite", ".sqlite3", ".sql", ".mdb", ".accdb",
		".dbf", ".realm",
	)

	codeExtensions = extSet(
		".py", ".java", ".cpp", ".c", ".h", ".js", ".ts", ".php",
		".rb", ".go", ".rs", ".swift", ".kt", ".html", ".css",
		".sh", ".bat", ".ps1",
	)

	executableExtensions = extSet(
		".exe", ".dll", ".app", ".apk", ".ipa", ".deb", ".rpm",
		".dmg", ".pkg", ".msi", ".bin", ".so", ".dylib",
	)

	emailExtensions = extSet(
		".eml", ".msg", ".pst", ".ost", ".mbox", ".emlx",
	)

	systemExtensions = extSet(
		".log", ".xml", ".json", ".ini", ".cfg", ".conf", ".reg",
		".plist", ".dat", ".tmp", ".bak", ".sys",
	)
)
