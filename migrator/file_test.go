package migrate

import (
	"strings"
	"testing"
)

const (
	testFileData1 = `single line command;`
	testFileData2 = `#dependency
			first command;
			second command;`
	testFileData3 = `#dep1
#dep2`
	testFileData4 = "#windows\r\nSELECT 1;"
)

func expectedDependencies(t *testing.T, file file, dependencies []string) {
	t.Helper()

	if len(dependencies) != len(file.dependencies) {
		t.Fatalf(
			"erroneous number of dependencies, expected %d got %d",
			len(dependencies),
			len(file.dependencies),
		)
	}

	for i := range dependencies {
		if dependencies[i] != string(file.dependencies[i]) {
			t.Fatalf(
				"dependency mismatch, expected '%s' got '%s'",
				dependencies[i],
				file.dependencies[i],
			)
		}
	}
}

func TestFileParse(t *testing.T) {
	file, err := parseFileContent(strings.NewReader(testFileData1))
	if err != nil {
		t.Fatal(err)
	}

	expectedDependencies(t, file, nil)

	if file.sql != testFileData1 {
		t.Fatalf("erroneous sql for file: %s", file.sql)
	}
}

func TestFileParseWithDependency(t *testing.T) {
	file, err := parseFileContent(strings.NewReader(testFileData2))
	if err != nil {
		t.Fatal(err)
	}

	expectedDependencies(t, file, []string{"dependency"})

	if !strings.HasPrefix(strings.TrimSpace(file.sql), "first command;") {
		t.Fatalf("erroneous sql for file: %s", file.sql)
	}
}

func TestFileParseOnlyDependencies(t *testing.T) {
	file, err := parseFileContent(strings.NewReader(testFileData3))
	if err != nil {
		t.Fatal(err)
	}

	expectedDependencies(t, file, []string{"dep1", "dep2"})

	if file.sql != "" {
		t.Fatalf("expected no sql, got: %s", file.sql)
	}
}

func TestFileParseCRLF(t *testing.T) {
	file, err := parseFileContent(strings.NewReader(testFileData4))
	if err != nil {
		t.Fatal(err)
	}

	expectedDependencies(t, file, []string{"windows"})
}
