// Package tracker implements Trackers, which track and save data in an
// experiment
package tracker

import (
	"encoding/csv"
	"encoding/gob"
	"fmt"
	"os"
	"strconv"

	ts "github.com/samuelfneumann/navdqn/timestep"
)

// Tracker keeps track of experiment data and saves the data after the
// experiment has finished
type Tracker interface {
	Track(t ts.TimeStep)
	Save() error
}

// LoadData loads and returns the data saved by a Tracker of float data
func LoadData(filename string) ([]float64, error) {
	var data []float64
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadData: %v", err)
	}
	return data, nil
}

// LoadInts loads and returns the data saved by a Tracker of integer
// data
func LoadInts(filename string) ([]int, error) {
	var data []int
	if err := load(filename, &data); err != nil {
		return nil, fmt.Errorf("loadInts: %v", err)
	}
	return data, nil
}

func load(filename string, data interface{}) error {
	file, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("could not open data file: %v", err)
	}
	defer file.Close()

	if err := gob.NewDecoder(file).Decode(data); err != nil {
		return fmt.Errorf("could not decode data: %v", err)
	}
	return nil
}

// save gob encodes data into filename
func save(filename string, data interface{}) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not open save file: %v", err)
	}

	if err := gob.NewEncoder(file).Encode(data); err != nil {
		file.Close()
		return fmt.Errorf("could not encode data: %v", err)
	}
	return file.Close()
}

// Column is a named column of a CSV file. Offset is the row of the
// first value, earlier rows are left empty.
type Column struct {
	Name   string
	Offset int
	Values []float64
}

// WriteCSV writes columns to filename, preceded by an "episode" column
// numbering the rows from 0
func WriteCSV(filename string, columns ...Column) error {
	rows := 0
	for _, c := range columns {
		if n := c.Offset + len(c.Values); n > rows {
			rows = n
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("writeCSV: could not open file: %v", err)
	}
	w := csv.NewWriter(file)

	header := []string{"episode"}
	for _, c := range columns {
		header = append(header, c.Name)
	}
	records := [][]string{header}

	for i := 0; i < rows; i++ {
		record := []string{strconv.Itoa(i)}
		for _, c := range columns {
			j := i - c.Offset
			if j < 0 || j >= len(c.Values) {
				record = append(record, "")
				continue
			}
			record = append(record,
				strconv.FormatFloat(c.Values[j], 'g', -1, 64))
		}
		records = append(records, record)
	}

	if err := w.WriteAll(records); err != nil {
		file.Close()
		return fmt.Errorf("writeCSV: %v", err)
	}
	return file.Close()
}
