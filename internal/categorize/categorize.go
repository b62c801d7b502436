// Package categorize maps evidence file names and paths to the forensic
// evidence taxonomy. Classification is a pure function over an ordered rule
// table: application signatures are checked before generic extension lookups
// because the same extension carries different forensic meaning depending on
// which application produced it.
package categorize

import (
	"path"
	"strings"
)

// Category is one value of the fixed forensic evidence taxonomy.
type Category string

const (
	// Communication evidence
	Messaging   Category = "messaging"
	Messages    Category = "messages"
	Calls       Category = "calls"
	SocialMedia Category = "social_media"

	// Financial evidence
	Banking        Category = "banking"
	Cryptocurrency Category = "cryptocurrency"

	// Media evidence
	Image Category = "image"
	Video Category = "video"
	CCTV  Category = "cctv"

	Document Category = "document"

	// Device data
	Contacts Category = "contacts"
	Location Category = "location"

	// Digital activity
	Browser Category = "browser"
	Cloud   Category = "cloud"

	// Storage and system
	Database Category = "database"
	Archive  Category = "archive"
	Memory   Category = "memory"

	Network     Category = "network"
	SIMData     Category = "sim_data"
	FraudDevice Category = "fraud_device"

	IoT       Category = "iot"
	Encrypted Category = "encrypted"

	Audio      Category = "audio"
	Email      Category = "email"
	Code       Category = "code"
	Executable Category = "executable"
	System     Category = "system"
	Other      Category = "other"
)

// All lists every category in display priority order.
var All = []Category{
	Messaging, Messages, Calls, SocialMedia,
	Banking, Cryptocurrency,
	Image, Video, CCTV,
	Document,
	Contacts, Location,
	Browser, Cloud,
	Database, Archive, Memory,
	Network, SIMData, FraudDevice,
	IoT, Encrypted,
	Audio, Email, Code, Executable, System, Other,
}

// Subject carries the lowercase name components a rule can inspect.
type Subject struct {
	Name   string // base file name
	Path   string // full path within the container or filesystem
	Ext    string // extension including the leading dot
	Parent string // immediate parent folder name
}

// NewSubject derives a Subject from a slash or OS separated path.
func NewSubject(p string) Subject {
	normalized := strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	name := path.Base(normalized)
	return Subject{
		Name:   name,
		Path:   normalized,
		Ext:    path.Ext(name),
		Parent: path.Base(path.Dir(normalized)),
	}
}

// rule pairs a named predicate with the category it assigns.
// Order in the rules table encodes priority; first match wins.
type rule struct {
	category Category
	match    func(s *Subject) bool
}

var rules = []rule{
	// 1. Messaging-app chat stores
	{Messaging, anyOf(
		nameIs("msgstore.db", "wa.db", "chatstorage.sqlite", "cache4.db", "signal.db", "signal.sqlite", "viber_messages"),
		namePrefix("msgstore-"), // dated WhatsApp backups: msgstore-2024-01-01.1.db
		parentIs("whatsapp", "telegram", "signal", "viber", "wechat", "line", "kik", "threema"),
	)},

	// 2. SMS/MMS stores
	{Messages, anyOf(
		nameIs("mmssms.db", "sms.db", "bulletin_db", "texts.db"),
		parentIs("sms", "mms"),
	)},

	// 3. Call-log stores
	{Calls, anyOf(
		nameIs("calllog.db", "call_history.db", "callhistory.storedata"),
		parentIs("calllogs", "call_logs", "cdr"),
	)},

	// 4. Social-media apps
	{SocialMedia, anyOf(
		parentIs("facebook", "instagram", "twitter", "snapchat", "tiktok", "linkedin", "reddit", "discord"),
		nameContains("facebook", "instagram", "snapchat", "tiktok"),
	)},

	// 5. Financial/payment apps, then cryptocurrency wallets
	{Banking, anyOf(
		parentIs("paytm", "phonepe", "gpay", "googlepay", "bhim", "upi", "banking"),
		nameContains("upi_transactions", "bank_statement"),
	)},
	{Cryptocurrency, anyOf(
		nameIs("wallet.dat"),
		extIs(".wallet"),
		parentIs("bitcoin", "ethereum", "binance", "coinbase", "metamask", "trustwallet", "electrum"),
	)},

	// 6. Surveillance/DVR, distinct from generic video
	{CCTV, anyOf(
		parentIs("dvr", "cctv", "surveillance", "nvr", "ipcamera", "ipcam"),
		extIs(".dav", ".264", ".h264"),
	)},

	// 7. Contact stores, then location and track files
	{Contacts, anyOf(
		nameIs("contacts2.db", "contacts.db", "addressbook.sqlitedb"),
		extIs(".vcf"),
	)},
	{Location, anyOf(
		extIs(".gpx", ".kml", ".kmz"),
		parentIs("gps", "locations", "location"),
	)},

	// 8. Browser artifacts, then cloud-sync folders
	{Browser, anyOf(
		nameIs("history", "history.db", "cookies", "cookies.sqlite", "places.sqlite",
			"webcachev01.dat", "bookmarks", "login data", "web data"),
		parentIs("browser", "chrome", "firefox", "safari"),
	)},
	{Cloud, parentIs("dropbox", "gdrive", "google drive", "googledrive", "onedrive", "icloud", "mega", "box")},

	// 9. Memory dumps, network captures, SIM/fraud-device folders
	{Memory, anyOf(
		extIs(".dmp", ".mem", ".vmem", ".raw"),
		nameIs("hiberfil.sys", "pagefile.sys", "swapfile.sys"),
	)},
	{Network, anyOf(
		extIs(".pcap", ".pcapng", ".cap"),
		parentIs("router", "netlogs", "network_logs", "firewall"),
	)},
	{SIMData, parentIs("sim", "sim_dump", "simdata")},
	{FraudDevice, parentIs("simbox", "sim_box", "skimmer", "cloner")},

	// 10. Wearable/vehicle data, then encrypted containers
	{IoT, anyOf(
		extIs(".fit", ".tcx"),
		parentIs("smartwatch", "fitbit", "garmin", "vehicle", "obd", "iot", "drone"),
	)},
	{Encrypted, extIs(".hc", ".tc", ".axx", ".kdbx", ".gpg", ".pgp", ".vault", ".enc")},

	// 11. Generic extension-table lookups
	{Image, extTable(imageExtensions)},
	{Video, extTable(videoExtensions)},
	{Document, extTable(documentExtensions)},
	{Audio, extTable(audioExtensions)},
	{Archive, extTable(archiveExtensions)},
	{Database, extTable(databaseExtensions)},
	{Code, extTable(codeExtensions)},
	{Executable, extTable(executableExtensions)},
	{Email, extTable(emailExtensions)},
	{System, extTable(systemExtensions)},
}

// Categorize returns the category of a subject. It is deterministic and free
// of side effects; the same subject always yields the same category.
func Categorize(s Subject) Category {
	for i := range rules {
		if rules[i].match(&s) {
			return rules[i].category
		}
	}
	return Other
}

// ForPath categorizes a raw container or filesystem path.
func ForPath(p string) Category {
	return Categorize(NewSubject(p))
}

// --- predicate constructors ---

func anyOf(preds ...func(s *Subject) bool) func(s *Subject) bool {
	return func(s *Subject) bool {
		for _, pred := range preds {
			if pred(s) {
				return true
			}
		}
		return false
	}
}

func nameIs(names ...string) func(s *Subject) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(s *Subject) bool {
		_, ok := set[s.Name]
		return ok
	}
}

func namePrefix(prefix string) func(s *Subject) bool {
	return func(s *Subject) bool {
		return strings.HasPrefix(s.Name, prefix)
	}
}

func nameContains(fragments ...string) func(s *Subject) bool {
	return func(s *Subject) bool {
		for _, fragment := range fragments {
			if strings.Contains(s.Name, fragment) {
				return true
			}
		}
		return false
	}
}

func parentIs(folders ...string) func(s *Subject) bool {
	set := make(map[string]struct{}, len(folders))
	for _, f := range folders {
		set[f] = struct{}{}
	}
	return func(s *Subject) bool {
		_, ok := set[s.Parent]
		return ok
	}
}

func extIs(exts ...string) func(s *Subject) bool {
	set := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		set[e] = struct{}{}
	}
	return func(s *Subject) bool {
		_, ok := set[s.Ext]
		return ok
	}
}

func extTable(table map[string]struct{}) func(s *Subject) bool {
	return func(s *Subject) bool {
		_, ok := table[s.Ext]
		return ok
	}
}
