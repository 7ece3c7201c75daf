// Command imagesync organizes two image collections into one output tree.
//
// Images that look alike, across or within the two inputs, are moved into a
// shared similar_<name> folder; everything else lands in unique_images. Runs
// are journaled in a sqlite database that the history command reads back.
package main
