// Command mediasort ingests camera dumps and memory cards into a dated
// photo/video library. Every run is persisted stage by stage, so an
// interrupted ingest resumes where it stopped and a finished one can be
// rolled back.
package main
