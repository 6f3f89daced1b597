package runtime

import (
	"cryptochat/errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestCensoredLoader_LoadAll(t *testing.T) {
	req := require.New(t)
	dictionaries := fstest.MapFS{
		"censored/en.txt":    {Data: []byte("darn\r\nheck\n\n# comment\n")},
		"censored/fr.txt":    {Data: []byte("zut\nheck\n")},
		"censored/README.md": {Data: []byte("not a dictionary")},
		"censored/old/x.txt": {Data: []byte("ignored")},
	}

	data, err := NewCensoredLoader(dictionaries).LoadAll("censored", " blast ", "")

	req.NoError(err)
	req.Equal([]string{"blast", "darn", "heck", "zut"}, data.Words)
	req.Equal([]string{"en", "fr"}, data.Languages)
}

func TestCensoredLoader_ExtraWordsOnly(t *testing.T) {
	req := require.New(t)

	data, err := NewCensoredLoader(nil).LoadAll(".", "darn")

	req.NoError(err)
	req.Equal([]string{"darn"}, data.Words)
	req.Empty(data.Languages)
}

func TestCensoredLoader_Empty(t *testing.T) {
	req := require.New(t)

	_, err := NewCensoredLoader(fstest.MapFS{"censored/en.txt": {Data: []byte("\n")}}).LoadAll("censored")
	req.ErrorIs(err, errors.ErrEmptyWords)

	_, err = NewCensoredLoader(fstest.MapFS{}).LoadAll("missing")
	req.Error(err)
}
