package store

import (
	"fmt"
	"regexp"
	"strings"

	"smartmusic/internal/auth"
	"smartmusic/pkg/models"
)

// seedArt is the placeholder artwork assigned to seeded songs until the
// artwork lookup replaces it.
const seedArt = "https://picsum.photos/400/400"

// seedFiles is the bundled demo catalog, one raw media filename per entry.
var seedFiles = []string{
	"[CLEAN]_Juice_WRLD_-_I_Want_It(0).m4a",
	"[CLEAN]_Juice_WRLD_-_Reminds_Me_Of_You_feat._The_Kid_LAROI_(0).m4a",
	"[Instrumental]_Juice_WRLD_-_Black_and_White(128k).m4a",
	"_2_Eric_Donaldson_-_A_Tear_Fell_-_Reggae_Music(128k).m4a",
	"5ive_-_Me_And_My_Brother(128k).m4a",
	"24KGoldn_-_Valentino_Lyrics_(128k).m4a",
	"A_Boogie_Wit_Da_Hoodie_-_Demons_and_Angels_feat._Juice_WRLD_[Official_Audi.m4a",
	"Abigail_Chams,_Harmonize_-_Me_too__Official_Music_Video_(128k).m4a",
	"Akon_-_Lonely__Official_Music_Video_(128k).m4a",
	"benny_blanco,_Juice_WRLD_-_Roses__Clean_-_Lyrics__ft._Brendon_Urie(0).m4a",
	"Can_t_Die__Clean_Version_-_Juice_WRLD___[Download_Link](0).m4a",
	"Cherry_Oh_Baby_-_Eric_Donaldson(128k).m4a",
	"CKAY_-_DTF___OFFICIAL_AUDIO(128k).m4a",
	"Davido_-_FOR_THE_ROAD__Official_Audio_(128k).m4a",
	"Dax_-_Dear_Alcohol__Official_Music_Video_(128k).m4a",
	"Dax_-_Dear_Mom__Official_Music_Video_(128k).m4a",
	"Dax_-_God_s_Eyes__Official_Music_Video_(128k).m4a",
	"Gyakie_-_Forever__Official_Music_Video_(128k).m4a",
	"Halsey_-_Without_Me(128k).m4a",
	"Juice_WRLD_-_Lean_Wit_Me__Official_Music_Video_(0).m4a",
	"Juice_WRLD_-_Legends__Official_Audio_(0).m4a",
	"Juice_WRLD_-_Rich_And_Blind___Official_Audio_(0).m4a",
	"Juice_WRLD_-_All_Girls_Are_The_Same__Official_Visualizer_(0).m4a",
	"Juice_WRLD_-_Armed__Dangerous__Official_Music_Video_(0).m4a",
	"Malinga_-_Chete_ft._Zeze_Kingston__Official_Music_Video_(128k).m4a",
	"Nasty_C_-_See_Me_Now__Remix__feat._MAETA(128k).m4a",
	"POP_SMOKE_-_WHAT_YOU_KNOW_BOUT_LOVE__Official_Video_(128k).m4a",
}

var (
	bracketTagRE = regexp.MustCompile(`\[.*?\]`)
	bitrateRE    = regexp.MustCompile(`\(128k\)|\(0\)`)
	junkWordsRE  = regexp.MustCompile(`(?i)Official Video|Music Video|Audio|Lyrics|Visualizer`)
	splitRE      = regexp.MustCompile(` - |__|- `)
)

// songFromFilename derives a catalog entry from a raw media filename.
// Bracket tags and bitrate suffixes are stripped, underscores become spaces
// and an "Artist - Title" split is attempted.
func songFromFilename(file string, id int) models.Song {
	clean := bitrateRE.ReplaceAllString(file, "")
	clean = bracketTagRE.ReplaceAllString(clean, "")
	clean = strings.TrimSuffix(clean, ".m4a")
	clean = strings.TrimSpace(strings.ReplaceAll(clean, "_", " "))

	artist := "Smart Music Artist"
	title := clean

	parts := splitRE.Split(clean, -1)
	if len(parts) >= 2 {
		artist = strings.TrimSpace(parts[0])
		title = strings.TrimSpace(parts[1])
		if len(parts) > 2 {
			title += " " + parts[2]
		}
	}

	title = strings.TrimSpace(junkWordsRE.ReplaceAllString(title, ""))
	if title == "" {
		title = fmt.Sprintf("Track %d", id)
	}

	return models.Song{
		ID:     id,
		File:   file,
		Title:  title,
		Artist: artist,
		Art:    seedArt,
	}
}

// seedCatalog builds the initial song catalog from the bundled file list.
func seedCatalog() []models.Song {
	songs := make([]models.Song, 0, len(seedFiles))
	for i, file := range seedFiles {
		songs = append(songs, songFromFilename(file, i+1))
	}
	return songs
}

// seed writes the initial document: the seeded catalog plus a default admin
// account with a generated password that is printed exactly once.
func (s *Store) seed(adminEmail string) error {
	password, err := auth.GenerateRandomPassword(12)
	if err != nil {
		return fmt.Errorf("failed to generate admin password: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	admin := models.User{
		ID:       "admin_001",
		Username: "Administrator",
		Email:    adminEmail,
		Password: hash,
		Role:     models.RoleAdmin,
		Bio:      "Smart Music administrator",
	}

	doc := &document{
		Users:     []models.User{admin},
		Playlists: []models.Playlist{},
		Likes:     []models.Like{},
		Songs:     seedCatalog(),
		Messages:  []models.Message{},
	}

	if err := s.save(doc); err != nil {
		return err
	}

	// Print the generated password to stdout so the admin can see it
	fmt.Printf("\n"+
		"=====================================\n"+
		"DEFAULT ADMIN USER CREATED\n"+
		"=====================================\n"+
		"Email:    %s\n"+
		"Password: %s\n"+
		"=====================================\n"+
		"Please change this password after your first login.\n\n", adminEmail, password)

	s.logger.WithField("songs", len(doc.Songs)).Info("Seeded initial document")
	return nil
}
