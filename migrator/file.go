package migrate

import (
	"bufio"
	"io"
	"io/fs"
	"strings"
)

type (
	fileIdentifier string

	// A migration file lists its dependencies as leading '#name' lines,
	// everything after them is sql
	file struct {
		dependencies []fileIdentifier
		sql          string
	}
)

func parseFile(fsys fs.FS, path string) (file, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return file{}, err
	}
	defer f.Close()

	return parseFileContent(f)
}

func parseFileContent(reader io.Reader) (file, error) {
	var file file

	buf := bufio.NewReader(reader)
	for {
		c, err := buf.Peek(1)
		if err == io.EOF {
			return file, nil
		}
		if err != nil {
			return file, err
		}

		if c[0] != '#' {
			break
		}

		line, err := buf.ReadString('\n')
		if err != nil && err != io.EOF {
			return file, err
		}

		dep := strings.TrimSpace(strings.TrimPrefix(line, "#"))
		if dep != "" {
			file.dependencies = append(file.dependencies, fileIdentifier(dep))
		}
	}

	sql, err := io.ReadAll(buf)
	file.sql = string(sql)

	return file, err
}
